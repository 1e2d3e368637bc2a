package exchange

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/luxemarket/storefront-backend/pkg/db/models"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/outbox"
	"github.com/luxemarket/storefront-backend/pkg/outbox/payloads"
	"github.com/luxemarket/storefront-backend/pkg/pagination"
)

const maxAgeYears = 50

// EstimateInput is the body of the public estimate endpoint.
type EstimateInput struct {
	ProductType enums.ProductCategory   `json:"productType" validate:"required"`
	Condition   enums.ExchangeCondition `json:"condition" validate:"required"`
	AgeYears    int                     `json:"ageYears" validate:"gte=0,lte=50"`
}

type EstimateResult struct {
	EstimatedValue decimal.Decimal `json:"estimatedValue"`
}

// CreateInput is a trade-in request. Any client-side estimate is ignored.
type CreateInput struct {
	Name        string                  `json:"name" validate:"required,max=120"`
	Email       string                  `json:"email" validate:"required,email"`
	Phone       string                  `json:"phone" validate:"required,max=20"`
	OldUPSModel string                  `json:"oldUpsModel" validate:"required,max=120"`
	ProductType enums.ProductCategory   `json:"productType" validate:"required"`
	Condition   enums.ExchangeCondition `json:"condition" validate:"required"`
	AgeYears    int                     `json:"ageYears" validate:"gte=0,lte=50"`
}

type RequestDTO struct {
	ID             uuid.UUID               `json:"id"`
	UserID         *uuid.UUID              `json:"userId,omitempty"`
	Name           string                  `json:"name"`
	Email          string                  `json:"email"`
	Phone          string                  `json:"phone"`
	OldUPSModel    string                  `json:"oldUpsModel"`
	ProductType    enums.ProductCategory   `json:"productType"`
	Condition      enums.ExchangeCondition `json:"condition"`
	AgeYears       int                     `json:"ageYears"`
	EstimatedValue decimal.Decimal         `json:"estimatedValue"`
	CreatedAt      time.Time               `json:"createdAt"`
}

func newRequestDTO(m *models.ExchangeRequest) RequestDTO {
	return RequestDTO{
		ID:             m.ID,
		UserID:         m.UserID,
		Name:           m.Name,
		Email:          m.Email,
		Phone:          m.Phone,
		OldUPSModel:    m.OldUPSModel,
		ProductType:    m.ProductType,
		Condition:      m.Condition,
		AgeYears:       m.AgeYears,
		EstimatedValue: m.EstimatedValue,
		CreatedAt:      m.CreatedAt,
	}
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service interface {
	Estimate(ctx context.Context, input EstimateInput) (EstimateResult, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*RequestDTO, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[RequestDTO], error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	outbox outbox.Emitter
}

func NewService(repo *Repository, tx txRunner, emitter outbox.Emitter) (Service, error) {
	switch {
	case repo == nil:
		return nil, fmt.Errorf("exchange repository required")
	case tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case emitter == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter}, nil
}

func (s *service) Estimate(_ context.Context, input EstimateInput) (EstimateResult, error) {
	if input.AgeYears < 0 || input.AgeYears > maxAgeYears {
		return EstimateResult{}, pkgerrors.Newf(pkgerrors.CodeValidation, "ageYears must be between 0 and %d", maxAgeYears)
	}
	return EstimateResult{EstimatedValue: Estimate(input.ProductType, input.Condition, input.AgeYears)}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*RequestDTO, error) {
	if problems := validateCreate(input); len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid exchange request").WithDetails(problems)
	}
	row := &models.ExchangeRequest{
		Name:           strings.TrimSpace(input.Name),
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:          strings.TrimSpace(input.Phone),
		OldUPSModel:    strings.TrimSpace(input.OldUPSModel),
		ProductType:    input.ProductType,
		Condition:      input.Condition,
		AgeYears:       input.AgeYears,
		EstimatedValue: Estimate(input.ProductType, input.Condition, input.AgeYears),
	}
	if userID != uuid.Nil {
		row.UserID = &userID
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create exchange request")
		}
		var actor *outbox.ActorRef
		if row.UserID != nil {
			actor = &outbox.ActorRef{UserID: *row.UserID}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventExchangeRequested,
			AggregateType: enums.AggregateExchange,
			AggregateID:   row.ID,
			Actor:         actor,
			Data: payloads.ExchangeRequestedEvent{
				RequestID:      row.ID,
				Name:           row.Name,
				Email:          row.Email,
				OldUPSModel:    row.OldUPSModel,
				Condition:      row.Condition,
				EstimatedValue: row.EstimatedValue,
			},
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create exchange request")
	}
	dto := newRequestDTO(row)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[RequestDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[RequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[RequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list exchange requests")
	}
	page := pagination.Build(rows, params.Limit, func(r models.ExchangeRequest) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	items := make([]RequestDTO, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, newRequestDTO(&page.Items[i]))
	}
	return pagination.Page[RequestDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

func validateCreate(input CreateInput) []string {
	var problems []string
	required := []struct{ field, value string }{
		{"name", input.Name},
		{"email", input.Email},
		{"phone", input.Phone},
		{"oldUpsModel", input.OldUPSModel},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, r.field+" is required")
		}
	}
	if !input.ProductType.IsValid() {
		problems = append(problems, "productType is invalid")
	}
	if !input.Condition.IsValid() {
		problems = append(problems, "condition is invalid")
	}
	if input.AgeYears < 0 || input.AgeYears > maxAgeYears {
		problems = append(problems, fmt.Sprintf("ageYears must be between 0 and %d", maxAgeYears))
	}
	return problems
}
