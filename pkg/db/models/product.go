package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/luxemarket/storefront-backend/pkg/db/types"
	"github.com/luxemarket/storefront-backend/pkg/enums"
)

// Product is a catalog listing.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name        string                `gorm:"column:name;not null"`
	Description string                `gorm:"column:description;not null"`
	Price       decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	Category    enums.ProductCategory `gorm:"column:category;not null"`
	ImageURL    string                `gorm:"column:image_url;not null"`
	Rating      float64               `gorm:"column:rating;not null;default:0"`
	ReviewCount int                   `gorm:"column:review_count;not null;default:0"`
	Stock       int                   `gorm:"column:stock;not null;default:0"`
	Discount    int                   `gorm:"column:discount;not null;default:0"`
	Features    dbtypes.StringList    `gorm:"column:features;not null"`
	Colors      dbtypes.StringList    `gorm:"column:colors;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
