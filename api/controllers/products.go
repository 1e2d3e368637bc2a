package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/luxemarket/storefront-backend/api/responses"
	"github.com/luxemarket/storefront-backend/api/validators"
	"github.com/luxemarket/storefront-backend/internal/products"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

const maxSearchLen = 120

type productRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"required"`
	ImageURL    string          `json:"imageUrl" validate:"omitempty,url"`
	Rating      float64         `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount int             `json:"reviewCount" validate:"gte=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Discount    int             `json:"discount" validate:"gte=0,lte=100"`
	Features    []string        `json:"features"`
	Colors      []string        `json:"colors"`
}

func (p productRequest) toInput() (products.ProductInput, error) {
	category, err := parseCategory(p.Category)
	if err != nil {
		return products.ProductInput{}, err
	}
	return products.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    category,
		ImageURL:    p.ImageURL,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Stock:       p.Stock,
		Discount:    p.Discount,
		Features:    p.Features,
		Colors:      p.Colors,
	}, nil
}

type productUpdateRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,url"`
	Rating      *float64         `json:"rating" validate:"omitempty,gte=0,lte=5"`
	ReviewCount *int             `json:"reviewCount" validate:"omitempty,gte=0"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Discount    *int             `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Features    *[]string        `json:"features"`
	Colors      *[]string        `json:"colors"`
}

func (p productUpdateRequest) toInput() (products.UpdateInput, error) {
	input := products.UpdateInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Stock:       p.Stock,
		Discount:    p.Discount,
		Features:    p.Features,
		Colors:      p.Colors,
	}
	if p.Category != nil {
		category, err := parseCategory(*p.Category)
		if err != nil {
			return products.UpdateInput{}, err
		}
		input.Category = &category
	}
	return input, nil
}

func parseCategory(raw string) (enums.ProductCategory, error) {
	category, err := enums.ParseProductCategory(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").
			WithDetails(map[string]any{"field": "category"})
	}
	return category, nil
}

func parseListInput(r *http.Request) (products.ListInput, error) {
	params, err := validators.ParsePagination(r)
	if err != nil {
		return products.ListInput{}, err
	}
	query := r.URL.Query()
	filter := products.ListFilter{
		Query: validators.SearchTerm(query.Get("q"), maxSearchLen),
	}
	if raw := strings.TrimSpace(query.Get("category")); raw != "" {
		category, err := parseCategory(raw)
		if err != nil {
			return products.ListInput{}, err
		}
		filter.Category = &category
	}
	if filter.MinPrice, err = validators.ParseQueryDecimal(r, "minPrice"); err != nil {
		return products.ListInput{}, err
	}
	if filter.MaxPrice, err = validators.ParseQueryDecimal(r, "maxPrice"); err != nil {
		return products.ListInput{}, err
	}
	if filter.InStock, err = validators.ParseQueryBool(r, "inStock"); err != nil {
		return products.ListInput{}, err
	}
	return products.ListInput{Filter: filter, Params: params}, nil
}

// ProductList serves the public catalog with search and price filters.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("product", logg)
	}
	return endpoint(logg, http.StatusOK, func(r *http.Request) (any, error) {
		input, err := parseListInput(r)
		if err != nil {
			return nil, err
		}
		return svc.List(r.Context(), input)
	})
}

func ProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("product", logg)
	}
	return endpoint(logg, http.StatusOK, func(r *http.Request) (any, error) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			return nil, err
		}
		return svc.Get(r.Context(), id)
	})
}

func ProductRelated(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("product", logg)
	}
	return endpoint(logg, http.StatusOK, func(r *http.Request) (any, error) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			return nil, err
		}
		return svc.Related(r.Context(), id)
	})
}

func AdminProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("product", logg)
	}
	return endpoint(logg, http.StatusCreated, func(r *http.Request) (any, error) {
		body, err := decode[productRequest](r)
		if err != nil {
			return nil, err
		}
		input, err := body.toInput()
		if err != nil {
			return nil, err
		}
		return svc.Create(r.Context(), input)
	})
}

func AdminProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("product", logg)
	}
	return endpoint(logg, http.StatusOK, func(r *http.Request) (any, error) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			return nil, err
		}
		body, err := decode[productUpdateRequest](r)
		if err != nil {
			return nil, err
		}
		input, err := body.toInput()
		if err != nil {
			return nil, err
		}
		return svc.Update(r.Context(), id, input)
	})
}

func AdminProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("product", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err == nil {
			err = svc.Delete(r.Context(), id)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
