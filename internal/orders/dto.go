package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/luxemarket/storefront-backend/pkg/db/models"
	"github.com/luxemarket/storefront-backend/pkg/enums"
)

// ItemInput is one submitted order line.
type ItemInput struct {
	ProductID uuid.UUID       `json:"productId" validate:"required"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
}

type ShippingInput struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Address   string `json:"address" validate:"required,max=255"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"max=100"`
	ZipCode   string `json:"zipCode" validate:"required,max=20"`
}

func (s ShippingInput) toModel() models.ShippingInfo {
	return models.ShippingInfo{
		FirstName: strings.TrimSpace(s.FirstName),
		LastName:  strings.TrimSpace(s.LastName),
		Email:     strings.ToLower(strings.TrimSpace(s.Email)),
		Address:   strings.TrimSpace(s.Address),
		City:      strings.TrimSpace(s.City),
		State:     strings.TrimSpace(s.State),
		ZipCode:   strings.TrimSpace(s.ZipCode),
	}
}

// PaymentInput never carries full card data, only its last four digits.
type PaymentInput struct {
	Method    string `json:"method" validate:"max=50"`
	CardLast4 string `json:"cardLast4" validate:"omitempty,len=4,numeric"`
}

// PlaceOrderRequest is the body of POST /orders.
type PlaceOrderRequest struct {
	Items        []ItemInput     `json:"items" validate:"required,min=1,dive"`
	ShippingInfo ShippingInput   `json:"shippingInfo" validate:"required"`
	PaymentInfo  PaymentInput    `json:"paymentInfo"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
}

type UpdateStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

type OrderItemDTO struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
}

type ShippingDTO struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode"`
}

type PaymentDTO struct {
	Method    string `json:"method"`
	CardLast4 string `json:"cardLast4,omitempty"`
}

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID           uuid.UUID         `json:"id"`
	UserID       uuid.UUID         `json:"userId"`
	Items        []OrderItemDTO    `json:"items"`
	ShippingInfo ShippingDTO       `json:"shippingInfo"`
	PaymentInfo  PaymentDTO        `json:"paymentInfo"`
	TotalPrice   decimal.Decimal   `json:"totalPrice"`
	Status       enums.OrderStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

func NewOrderDTO(o *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price.Round(2),
			ImageURL:  item.ImageURL,
		})
	}
	payment := PaymentDTO{Method: o.PaymentMethod}
	if o.CardLast4 != nil {
		payment.CardLast4 = *o.CardLast4
	}
	return OrderDTO{
		ID:     o.ID,
		UserID: o.UserID,
		Items:  items,
		ShippingInfo: ShippingDTO{
			FirstName: o.Shipping.FirstName,
			LastName:  o.Shipping.LastName,
			Email:     o.Shipping.Email,
			Address:   o.Shipping.Address,
			City:      o.Shipping.City,
			State:     o.Shipping.State,
			ZipCode:   o.Shipping.ZipCode,
		},
		PaymentInfo: payment,
		TotalPrice:  o.TotalPrice.Round(2),
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func newOrderDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewOrderDTO(&rows[i]))
	}
	return out
}
