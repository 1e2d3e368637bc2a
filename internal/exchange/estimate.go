// Package exchange quotes and records UPS trade-in requests.
package exchange

import (
	"github.com/shopspring/decimal"

	"github.com/luxemarket/storefront-backend/pkg/enums"
)

var baseValues = map[enums.ProductCategory]int64{
	enums.ProductCategoryUPSHome:       2500,
	enums.ProductCategoryUPSOffice:     4000,
	enums.ProductCategoryInverter:      2000,
	enums.ProductCategoryBatteryBackup: 1500,
}

var conditionMultipliers = map[enums.ExchangeCondition]string{
	enums.ExchangeConditionExcellent: "0.85",
	enums.ExchangeConditionGood:      "0.7",
	enums.ExchangeConditionFair:      "0.5",
	enums.ExchangeConditionPoor:      "0.3",
}

const (
	fallbackBase       = 1000
	fallbackMultiplier = "0.4"
	depreciationPerYr  = "0.1"
	maxDepreciation    = "0.8"
)

// Estimate quotes a trade-in value in whole rupees. Unknown product types
// and conditions fall back to the lowest tier; the result is never negative.
func Estimate(productType enums.ProductCategory, condition enums.ExchangeCondition, ageYears int) decimal.Decimal {
	base, ok := baseValues[productType]
	if !ok {
		base = fallbackBase
	}
	multiplier := fallbackMultiplier
	if m, ok := conditionMultipliers[condition]; ok {
		multiplier = m
	}

	depreciation := decimal.NewFromInt(int64(ageYears)).Mul(decimal.RequireFromString(depreciationPerYr))
	if ceiling := decimal.RequireFromString(maxDepreciation); depreciation.GreaterThan(ceiling) {
		depreciation = ceiling
	}

	value := decimal.NewFromInt(base).
		Mul(decimal.RequireFromString(multiplier)).
		Mul(decimal.NewFromInt(1).Sub(depreciation)).
		Round(0)
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}
