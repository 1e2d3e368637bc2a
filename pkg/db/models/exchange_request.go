package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/luxemarket/storefront-backend/pkg/enums"
)

// ExchangeRequest records a trade-in submission with the quoted value.
type ExchangeRequest struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	UserID         *uuid.UUID              `gorm:"column:user_id;type:uuid;index"`
	Name           string                  `gorm:"column:name;not null"`
	Email          string                  `gorm:"column:email;not null"`
	Phone          string                  `gorm:"column:phone;not null"`
	OldUPSModel    string                  `gorm:"column:old_ups_model;not null"`
	ProductType    enums.ProductCategory   `gorm:"column:product_type;not null"`
	Condition      enums.ExchangeCondition `gorm:"column:condition;not null"`
	AgeYears       int                     `gorm:"column:age_years;not null"`
	EstimatedValue decimal.Decimal         `gorm:"column:estimated_value;type:numeric(12,2);not null"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (e *ExchangeRequest) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}
