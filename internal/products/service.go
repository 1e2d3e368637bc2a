package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/luxemarket/storefront-backend/pkg/db/models"
	dbtypes "github.com/luxemarket/storefront-backend/pkg/db/types"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/pagination"
)

const relatedLimit = 4

// Service exposes catalog reads and admin management.
type Service interface {
	List(ctx context.Context, input ListInput) (pagination.Page[ProductDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Related(ctx context.Context, id uuid.UUID) ([]ProductDTO, error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListInput holds validated listing parameters.
type ListInput struct {
	Filter ListFilter
	pagination.Params
}

// ProductInput is the full payload for a new product.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    enums.ProductCategory
	ImageURL    string
	Rating      float64
	ReviewCount int
	Stock       int
	Discount    int
	Features    []string
	Colors      []string
}

// UpdateInput carries optional changes; nil fields are left alone.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *enums.ProductCategory
	ImageURL    *string
	Rating      *float64
	ReviewCount *int
	Stock       *int
	Discount    *int
	Features    *[]string
	Colors      *[]string
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (pagination.Page[ProductDTO], error) {
	if input.Filter.MinPrice != nil && input.Filter.MaxPrice != nil && input.Filter.MinPrice.GreaterThan(*input.Filter.MaxPrice) {
		return pagination.Page[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "minPrice cannot exceed maxPrice")
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, input.Filter, cursor, pagination.LimitWithBuffer(input.Limit))
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	page := pagination.Build(rows, input.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return pagination.Page[ProductDTO]{Items: newProductDTOs(page.Items), NextCursor: page.NextCursor}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Related(ctx context.Context, id uuid.UUID) ([]ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Related(ctx, product.Category, product.ID, relatedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list related products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Category:    input.Category,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Rating:      input.Rating,
		ReviewCount: input.ReviewCount,
		Stock:       input.Stock,
		Discount:    input.Discount,
		Features:    dbtypes.StringList(input.Features),
		Colors:      dbtypes.StringList(input.Colors),
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	applyUpdate(product, input)
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func applyUpdate(p *models.Product, in UpdateInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	if in.ReviewCount != nil {
		p.ReviewCount = *in.ReviewCount
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Discount != nil {
		p.Discount = *in.Discount
	}
	if in.Features != nil {
		p.Features = dbtypes.StringList(*in.Features)
	}
	if in.Colors != nil {
		p.Colors = dbtypes.StringList(*in.Colors)
	}
}

func validateProduct(p *models.Product) error {
	var problems []string
	if p.Name == "" {
		problems = append(problems, "name is required")
	}
	if p.Price.IsNegative() {
		problems = append(problems, "price must be >= 0")
	}
	if !p.Category.IsValid() {
		problems = append(problems, fmt.Sprintf("category must be one of %v", enums.ProductCategories()))
	}
	if p.Rating < 0 || p.Rating > 5 {
		problems = append(problems, "rating must be between 0 and 5")
	}
	if p.ReviewCount < 0 {
		problems = append(problems, "reviewCount must be >= 0")
	}
	if p.Stock < 0 {
		problems = append(problems, "stock must be >= 0")
	}
	if p.Discount < 0 || p.Discount > 100 {
		problems = append(problems, "discount must be between 0 and 100")
	}
	if p.Features == nil {
		p.Features = dbtypes.StringList{}
	}
	if p.Colors == nil {
		p.Colors = dbtypes.StringList{}
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(problems)
	}
	return nil
}
