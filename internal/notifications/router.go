// Package notifications turns outbox events into customer and staff mail.
package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/luxemarket/storefront-backend/pkg/db/models"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	"github.com/luxemarket/storefront-backend/pkg/mailer"
	"github.com/luxemarket/storefront-backend/pkg/outbox/payloads"
	"github.com/luxemarket/storefront-backend/pkg/outbox/registry"
)

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Router decides which mails an event produces.
type Router struct {
	users        userLookup
	adminAddress string
}

func NewRouter(users userLookup, adminAddress string) (*Router, error) {
	if users == nil {
		return nil, errors.New("user lookup required")
	}
	return &Router{users: users, adminAddress: adminAddress}, nil
}

// Messages renders the mails for a resolved event. An empty result means
// the event needs no mail.
func (r *Router) Messages(ctx context.Context, resolved *registry.ResolvedEvent) ([]mailer.Message, error) {
	switch p := resolved.Payload.(type) {
	case *payloads.OrderPlacedEvent:
		return render(mailer.TemplateOrderPlaced, p.Email, p)
	case *payloads.OrderStatusChangedEvent:
		return render(mailer.TemplateOrderStatusChanged, p.Email, p)
	case *payloads.InstallationRequestedEvent:
		if r.adminAddress == "" {
			return nil, nil
		}
		return render(mailer.TemplateInstallationRequested, r.adminAddress, p)
	case *payloads.InstallationStatusChangedEvent:
		user, err := r.users.FindByID(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("lookup installation owner: %w", err)
		}
		return render(mailer.TemplateInstallationUpdated, user.Email, p)
	case *payloads.ExchangeRequestedEvent:
		return render(mailer.TemplateExchangeRequested, p.Email, p)
	case *payloads.UserRegisteredEvent:
		return render(mailer.TemplateWelcome, p.Email, p)
	}
	return nil, registry.NewNonRetryableError(fmt.Errorf("no mail route for %s", eventType(resolved)))
}

func render(template, to string, data any) ([]mailer.Message, error) {
	if to == "" {
		return nil, registry.NewNonRetryableError(fmt.Errorf("%s: recipient missing", template))
	}
	msg, err := mailer.Render(template, []string{to}, data)
	if err != nil {
		return nil, registry.NewNonRetryableError(err)
	}
	return []mailer.Message{msg}, nil
}

func eventType(resolved *registry.ResolvedEvent) enums.OutboxEventType {
	if resolved == nil {
		return ""
	}
	return resolved.Descriptor.EventType
}
