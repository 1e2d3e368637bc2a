package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luxemarket/storefront-backend/pkg/enums"
)

// InstallationRequest asks a technician to install purchased equipment.
type InstallationRequest struct {
	ID        uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID   *uuid.UUID               `gorm:"column:order_id;type:uuid"`
	Name      string                   `gorm:"column:name;not null"`
	Phone     string                   `gorm:"column:phone;not null"`
	Address   string                   `gorm:"column:address;not null"`
	Notes     string                   `gorm:"column:notes;not null;default:''"`
	Status    enums.InstallationStatus `gorm:"column:status;not null;default:'Pending'"`
	CreatedAt time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *InstallationRequest) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	if r.Status == "" {
		r.Status = enums.InstallationStatusPending
	}
	return nil
}
