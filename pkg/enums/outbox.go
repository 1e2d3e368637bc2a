package enums

// OutboxAggregateType names the entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder        OutboxAggregateType = "order"
	AggregateInstallation OutboxAggregateType = "installation"
	AggregateExchange     OutboxAggregateType = "exchange"
	AggregateUser         OutboxAggregateType = "user"
)

var aggregateTypes = set[OutboxAggregateType]{
	AggregateOrder,
	AggregateInstallation,
	AggregateExchange,
	AggregateUser,
}

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return aggregateTypes.parse("aggregate type", value, false)
}

// OutboxEventType is the dotted name of a domain event, "<aggregate>.<verb>".
type OutboxEventType string

const (
	EventOrderPlaced           OutboxEventType = "order.placed"
	EventOrderStatusChanged    OutboxEventType = "order.status_changed"
	EventInstallationRequested OutboxEventType = "installation.requested"
	EventInstallationUpdated   OutboxEventType = "installation.status_changed"
	EventExchangeRequested     OutboxEventType = "exchange.requested"
	EventUserRegistered        OutboxEventType = "user.registered"
)

var eventTypes = set[OutboxEventType]{
	EventOrderPlaced,
	EventOrderStatusChanged,
	EventInstallationRequested,
	EventInstallationUpdated,
	EventExchangeRequested,
	EventUserRegistered,
}

func (e OutboxEventType) IsValid() bool { return eventTypes.has(e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return eventTypes.parse("event type", value, false)
}
