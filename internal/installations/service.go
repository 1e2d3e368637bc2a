// Package installations handles technician installation requests.
package installations

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luxemarket/storefront-backend/pkg/db/models"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/outbox"
	"github.com/luxemarket/storefront-backend/pkg/outbox/payloads"
	"github.com/luxemarket/storefront-backend/pkg/pagination"
)

// Ten-digit Indian mobile number.
var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// Notice texts shown after a successful submission.
const (
	SubmittedTitle       = "Request submitted"
	SubmittedDescription = "We’ll contact you soon."
)

type CreateInput struct {
	Name    string     `json:"name" validate:"required,max=120"`
	Phone   string     `json:"phone" validate:"required"`
	Address string     `json:"address" validate:"required,max=500"`
	Notes   string     `json:"notes" validate:"max=1000"`
	OrderID *uuid.UUID `json:"orderId,omitempty"`
}

type UpdateStatusInput struct {
	Status enums.InstallationStatus `json:"status" validate:"required"`
}

type RequestDTO struct {
	ID        uuid.UUID                `json:"id"`
	UserID    uuid.UUID                `json:"userId"`
	OrderID   *uuid.UUID               `json:"orderId,omitempty"`
	Name      string                   `json:"name"`
	Phone     string                   `json:"phone"`
	Address   string                   `json:"address"`
	Notes     string                   `json:"notes,omitempty"`
	Status    enums.InstallationStatus `json:"status"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

func newRequestDTO(m *models.InstallationRequest) RequestDTO {
	return RequestDTO{
		ID:        m.ID,
		UserID:    m.UserID,
		OrderID:   m.OrderID,
		Name:      m.Name,
		Phone:     m.Phone,
		Address:   m.Address,
		Notes:     m.Notes,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func newRequestDTOs(rows []models.InstallationRequest) []RequestDTO {
	out := make([]RequestDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newRequestDTO(&rows[i]))
	}
	return out
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*RequestDTO, error)
	Mine(ctx context.Context, userID uuid.UUID) ([]RequestDTO, error)
	AdminList(ctx context.Context, status *enums.InstallationStatus, params pagination.Params) (pagination.Page[RequestDTO], error)
	UpdateStatus(ctx context.Context, actorID uuid.UUID, id uuid.UUID, status enums.InstallationStatus) (*RequestDTO, error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	outbox outbox.Emitter
}

func NewService(repo *Repository, tx txRunner, emitter outbox.Emitter) (Service, error) {
	switch {
	case repo == nil:
		return nil, fmt.Errorf("installation repository required")
	case tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case emitter == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*RequestDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	row := &models.InstallationRequest{
		UserID:  userID,
		OrderID: input.OrderID,
		Name:    strings.TrimSpace(input.Name),
		Phone:   strings.TrimSpace(input.Phone),
		Address: strings.TrimSpace(input.Address),
		Notes:   strings.TrimSpace(input.Notes),
		Status:  enums.InstallationStatusPending,
	}
	if row.Name == "" || row.Phone == "" || row.Address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, phone, and address are required")
	}
	if !phonePattern.MatchString(row.Phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone must be a valid 10-digit mobile number").
			WithDetails(map[string]string{"phone": row.Phone})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create installation request")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInstallationRequested,
			AggregateType: enums.AggregateInstallation,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.InstallationRequestedEvent{
				RequestID: row.ID,
				UserID:    userID,
				Name:      row.Name,
				Phone:     row.Phone,
				Address:   row.Address,
				Notes:     row.Notes,
			},
		})
	})
	if err != nil {
		return nil, asTyped(err, "create installation request")
	}
	dto := newRequestDTO(row)
	return &dto, nil
}

func (s *service) Mine(ctx context.Context, userID uuid.UUID) ([]RequestDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list installation requests")
	}
	return newRequestDTOs(rows), nil
}

func (s *service) AdminList(ctx context.Context, status *enums.InstallationStatus, params pagination.Params) (pagination.Page[RequestDTO], error) {
	if status != nil && !status.IsValid() {
		return pagination.Page[RequestDTO]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *status)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[RequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, status, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[RequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list installation requests")
	}
	page := pagination.Build(rows, params.Limit, func(r models.InstallationRequest) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return pagination.Page[RequestDTO]{Items: newRequestDTOs(page.Items), NextCursor: page.NextCursor}, nil
}

func (s *service) UpdateStatus(ctx context.Context, actorID uuid.UUID, id uuid.UUID, status enums.InstallationStatus) (*RequestDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", status)
	}
	var updated *models.InstallationRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "installation request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load installation request")
		}
		if row.Status == status {
			updated = row
			return nil
		}
		if err := repo.UpdateStatus(ctx, id, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update installation status")
		}
		row.Status = status
		updated = row
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInstallationUpdated,
			AggregateType: enums.AggregateInstallation,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: string(enums.RoleAdmin)},
			Data: payloads.InstallationStatusChangedEvent{
				RequestID: row.ID,
				UserID:    row.UserID,
				Status:    status,
			},
		})
	})
	if err != nil {
		return nil, asTyped(err, "update installation status")
	}
	dto := newRequestDTO(updated)
	return &dto, nil
}

func asTyped(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
