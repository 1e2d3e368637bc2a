// Package sizing recommends UPS battery capacity for a load and runtime.
package sizing

import (
	"errors"
	"math"
)

// BatteryVoltage is the nominal voltage the recommendation assumes.
const BatteryVoltage = 12

var (
	ErrInvalidLoad   = errors.New("load watts must be greater than zero")
	ErrInvalidBackup = errors.New("backup hours must be greater than zero")
)

type Input struct {
	LoadWatts   float64 `json:"loadWatts" validate:"gt=0"`
	BackupHours float64 `json:"backupHours" validate:"gt=0"`
}

type Recommendation struct {
	LoadWatts   float64 `json:"loadWatts"`
	BackupHours float64 `json:"backupHours"`
	WattHours   float64 `json:"wattHours"`
	BatteryAh   int     `json:"batteryAh"`
	Voltage     int     `json:"voltage"`
}

// Recommend computes the energy needed and the 12V battery size that holds it.
func Recommend(in Input) (Recommendation, error) {
	if !(in.LoadWatts > 0) || math.IsInf(in.LoadWatts, 0) {
		return Recommendation{}, ErrInvalidLoad
	}
	if !(in.BackupHours > 0) || math.IsInf(in.BackupHours, 0) {
		return Recommendation{}, ErrInvalidBackup
	}
	wh := in.LoadWatts * in.BackupHours
	return Recommendation{
		LoadWatts:   in.LoadWatts,
		BackupHours: in.BackupHours,
		WattHours:   wh,
		BatteryAh:   int(math.Ceil(wh / BatteryVoltage)),
		Voltage:     BatteryVoltage,
	}, nil
}
