package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/luxemarket/storefront-backend/pkg/db/models"
	"github.com/luxemarket/storefront-backend/pkg/enums"
)

// ProductDTO is the catalog payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID             `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Price       decimal.Decimal       `json:"price"`
	SalePrice   decimal.Decimal       `json:"salePrice"`
	Category    enums.ProductCategory `json:"category"`
	ImageURL    string                `json:"imageUrl"`
	Rating      float64               `json:"rating"`
	ReviewCount int                   `json:"reviewCount"`
	Stock       int                   `json:"stock"`
	InStock     bool                  `json:"inStock"`
	Discount    int                   `json:"discount"`
	Features    []string              `json:"features"`
	Colors      []string              `json:"colors"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// SalePrice applies a whole-percent discount and rounds to cents.
func SalePrice(price decimal.Decimal, discount int) decimal.Decimal {
	if discount <= 0 {
		return price.Round(2)
	}
	factor := decimal.NewFromInt(int64(100 - discount)).Div(decimal.NewFromInt(100))
	return price.Mul(factor).Round(2)
}

func NewProductDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.Round(2),
		SalePrice:   SalePrice(p.Price, p.Discount),
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Stock:       p.Stock,
		InStock:     p.Stock > 0,
		Discount:    p.Discount,
		Features:    append([]string{}, p.Features...),
		Colors:      append([]string{}, p.Colors...),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func newProductDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewProductDTO(&rows[i]))
	}
	return out
}
