package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/luxemarket/storefront-backend/internal/products"
	"github.com/luxemarket/storefront-backend/pkg/db/models"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/outbox"
	"github.com/luxemarket/storefront-backend/pkg/outbox/payloads"
	"github.com/luxemarket/storefront-backend/pkg/pagination"
)

const defaultPaymentMethod = "Card"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor identifies the caller of an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

func (a Actor) isAdmin() bool { return a.Role == enums.RoleAdmin }

// Service defines order placement and lifecycle operations.
type Service interface {
	Place(ctx context.Context, actor Actor, req PlaceOrderRequest) (*OrderDTO, error)
	Mine(ctx context.Context, actor Actor, params pagination.Params) (pagination.Page[OrderDTO], error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error)
	AdminList(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (pagination.Page[OrderDTO], error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
}

type ServiceParams struct {
	Repo     Repository
	Products *products.Repository
	TX       txRunner
	Outbox   outbox.Emitter
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	products *products.Repository
	tx       txRunner
	outbox   outbox.Emitter
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Products == nil:
		return nil, fmt.Errorf("products repository required")
	case params.TX == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		tx:       params.TX,
		outbox:   params.Outbox,
		logg:     logg,
	}, nil
}

// Place validates the submission against the catalog, takes stock and
// records the order and its order.placed event in one transaction.
func (s *service) Place(ctx context.Context, actor Actor, req PlaceOrderRequest) (*OrderDTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if problems := validateSubmission(req); len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails(problems)
	}

	order := &models.Order{
		UserID:        actor.UserID,
		Shipping:      req.ShippingInfo.toModel(),
		PaymentMethod: strings.TrimSpace(req.PaymentInfo.Method),
		TotalPrice:    req.TotalPrice.Round(2),
		Status:        enums.OrderStatusProcessing,
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = defaultPaymentMethod
	}
	if last4 := strings.TrimSpace(req.PaymentInfo.CardLast4); last4 != "" {
		order.CardLast4 = &last4
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalog := s.products.WithTx(tx)
		found, err := catalog.FindByIDs(ctx, productIDs(req.Items))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}

		items := make([]models.OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			product, ok := found[line.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "product not found").
					WithDetails(map[string]any{"productId": line.ProductID})
			}
			taken, err := catalog.DecrementStock(ctx, product.ID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if !taken {
				return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
					WithDetails(map[string]any{"productId": product.ID, "name": product.Name, "requested": line.Quantity})
			}
			image := strings.TrimSpace(line.ImageURL)
			if image == "" {
				image = product.ImageURL
			}
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Quantity:  line.Quantity,
				Price:     line.Price.Round(2),
				ImageURL:  image,
			})
		}
		order.Items = items

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data:          placedEvent(order),
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "place order")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"items":    len(order.Items),
		"total":    order.TotalPrice.StringFixed(2),
	}), "order placed")

	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) Mine(ctx context.Context, actor Actor, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if actor.UserID == uuid.Nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByUser(ctx, actor.UserID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return buildPage(rows, params.Limit), nil
}

// Get returns an order owned by the actor; admins may read any order.
func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.isAdmin() && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) AdminList(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if status != nil && !status.IsValid() {
		return pagination.Page[OrderDTO]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *status)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, status, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return buildPage(rows, params.Limit), nil
}

func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !actor.isAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", status)
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		from := order.Status
		if !from.CanTransitionTo(status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", from, status).
				WithDetails(map[string]any{"from": from, "to": status})
		}
		moved, err := repo.UpdateStatus(ctx, id, from, status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		order.Status = status
		updated = order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data: payloads.OrderStatusChangedEvent{
				OrderID: order.ID,
				UserID:  order.UserID,
				Email:   order.Shipping.Email,
				From:    from,
				To:      status,
			},
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	dto := NewOrderDTO(updated)
	return &dto, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// validateSubmission checks the parts of an order that need no database.
// The submitted total must equal the sum of line price times quantity.
func validateSubmission(req PlaceOrderRequest) []string {
	var problems []string
	if len(req.Items) == 0 {
		problems = append(problems, "items must not be empty")
	}
	seen := make(map[uuid.UUID]struct{}, len(req.Items))
	total := decimal.Zero
	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			problems = append(problems, fmt.Sprintf("items[%d].productId is required", i))
		}
		if _, dup := seen[item.ProductID]; dup && item.ProductID != uuid.Nil {
			problems = append(problems, fmt.Sprintf("items[%d].productId is duplicated", i))
		}
		seen[item.ProductID] = struct{}{}
		if item.Quantity < 1 {
			problems = append(problems, fmt.Sprintf("items[%d].quantity must be at least 1", i))
		}
		if item.Price.IsNegative() {
			problems = append(problems, fmt.Sprintf("items[%d].price must not be negative", i))
		}
		total = total.Add(item.Price.Round(2).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if len(problems) == 0 && !total.Round(2).Equal(req.TotalPrice.Round(2)) {
		problems = append(problems, fmt.Sprintf("totalPrice %s does not match items total %s", req.TotalPrice.StringFixed(2), total.StringFixed(2)))
	}
	if last4 := strings.TrimSpace(req.PaymentInfo.CardLast4); last4 != "" && !isLast4(last4) {
		problems = append(problems, "paymentInfo.cardLast4 must be four digits")
	}
	return problems
}

func isLast4(v string) bool {
	if len(v) != 4 {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func productIDs(items []ItemInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func placedEvent(order *models.Order) payloads.OrderPlacedEvent {
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return payloads.OrderPlacedEvent{
		OrderID:      order.ID,
		UserID:       order.UserID,
		CustomerName: strings.TrimSpace(order.Shipping.FirstName + " " + order.Shipping.LastName),
		Email:        order.Shipping.Email,
		Items:        lines,
		TotalPrice:   order.TotalPrice,
		PlacedAt:     order.CreatedAt,
	}
}

func buildPage(rows []models.Order, limit int) pagination.Page[OrderDTO] {
	page := pagination.Build(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return pagination.Page[OrderDTO]{Items: newOrderDTOs(page.Items), NextCursor: page.NextCursor}
}
