package enums

// OrderStatus tracks fulfillment progress for a placed order.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

var orderStatuses = set[OrderStatus]{
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Delivered and Cancelled have no outgoing edges.
var orderTransitions = map[OrderStatus]set[OrderStatus]{
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) IsValid() bool { return orderStatuses.has(s) }

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return orderTransitions[s].has(next)
}

func (s OrderStatus) IsTerminal() bool { return len(orderTransitions[s]) == 0 }

func ParseOrderStatus(value string) (OrderStatus, error) {
	return orderStatuses.parse("order status", value, false)
}
