package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/luxemarket/storefront-backend/pkg/enums"
)

// OrderLine is the item snapshot carried by order events.
type OrderLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderPlacedEvent carries everything the confirmation mail needs so the
// worker does not read the order back.
type OrderPlacedEvent struct {
	OrderID      uuid.UUID       `json:"orderId"`
	UserID       uuid.UUID       `json:"userId"`
	CustomerName string          `json:"customerName"`
	Email        string          `json:"email"`
	Items        []OrderLine     `json:"items"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	PlacedAt     time.Time       `json:"placedAt"`
}

type OrderStatusChangedEvent struct {
	OrderID uuid.UUID         `json:"orderId"`
	UserID  uuid.UUID         `json:"userId"`
	Email   string            `json:"email"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

type InstallationRequestedEvent struct {
	RequestID uuid.UUID `json:"requestId"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Notes     string    `json:"notes,omitempty"`
}

type InstallationStatusChangedEvent struct {
	RequestID uuid.UUID                `json:"requestId"`
	UserID    uuid.UUID                `json:"userId"`
	Status    enums.InstallationStatus `json:"status"`
}

type ExchangeRequestedEvent struct {
	RequestID      uuid.UUID               `json:"requestId"`
	Name           string                  `json:"name"`
	Email          string                  `json:"email"`
	OldUPSModel    string                  `json:"oldUpsModel"`
	Condition      enums.ExchangeCondition `json:"condition"`
	EstimatedValue decimal.Decimal         `json:"estimatedValue"`
}

type UserRegisteredEvent struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
}
