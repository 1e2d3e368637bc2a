// Package registry knows which events the storefront emits and how to turn
// a stored outbox row back into its typed payload.
package registry

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/luxemarket/storefront-backend/pkg/db/models"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	"github.com/luxemarket/storefront-backend/pkg/outbox"
	"github.com/luxemarket/storefront-backend/pkg/outbox/payloads"
)

type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	newPayload    func() any
}

type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	byType map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a row the dispatcher should park instead of
// retrying; no amount of waiting will fix it.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

var errMissingAggregate = errors.New("missing aggregate_id")

func describe[T any](event enums.OutboxEventType, aggregate enums.OutboxAggregateType) EventDescriptor {
	return EventDescriptor{
		EventType:     event,
		AggregateType: aggregate,
		newPayload:    func() any { return new(T) },
	}
}

func NewEventRegistry() *EventRegistry {
	known := []EventDescriptor{
		describe[payloads.OrderPlacedEvent](enums.EventOrderPlaced, enums.AggregateOrder),
		describe[payloads.OrderStatusChangedEvent](enums.EventOrderStatusChanged, enums.AggregateOrder),
		describe[payloads.InstallationRequestedEvent](enums.EventInstallationRequested, enums.AggregateInstallation),
		describe[payloads.InstallationStatusChangedEvent](enums.EventInstallationUpdated, enums.AggregateInstallation),
		describe[payloads.ExchangeRequestedEvent](enums.EventExchangeRequested, enums.AggregateExchange),
		describe[payloads.UserRegisteredEvent](enums.EventUserRegistered, enums.AggregateUser),
	}
	reg := &EventRegistry{byType: make(map[enums.OutboxEventType]EventDescriptor, len(known))}
	for _, d := range known {
		reg.byType[d.EventType] = d
	}
	return reg
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every failure is non-retryable since the row itself is malformed.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, err := r.check(event)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	envelope, err := outbox.OpenEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	payload := desc.newPayload()
	if err := envelope.DecodeData(payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}

func (r *EventRegistry) check(event models.OutboxEvent) (EventDescriptor, error) {
	desc, ok := r.byType[event.EventType]
	switch {
	case !ok:
		return desc, fmt.Errorf("unsupported event type %s", event.EventType)
	case desc.AggregateType != event.AggregateType:
		return desc, fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	case event.AggregateID == uuid.Nil:
		return desc, errMissingAggregate
	}
	return desc, nil
}
