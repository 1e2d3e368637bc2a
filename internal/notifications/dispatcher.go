package notifications

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/luxemarket/storefront-backend/pkg/config"
	"github.com/luxemarket/storefront-backend/pkg/db/models"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/mailer"
	"github.com/luxemarket/storefront-backend/pkg/outbox/registry"
)

const (
	consumerName        = "mailer"
	defaultBatchSize    = 50
	defaultPollInterval = 500 * time.Millisecond
	defaultMaxAttempts  = 10
	defaultSendTimeout  = 30 * time.Second
	maxBackoff          = 10 * time.Second
	jitterWindow        = 250 * time.Millisecond
)

type outboxRepository interface {
	FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error, exhaustAt int) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type router interface {
	Messages(ctx context.Context, resolved *registry.ResolvedEvent) ([]mailer.Message, error)
}

type claimer interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Recorder receives dispatcher metrics, typically metrics.OutboxMetrics.
type Recorder interface {
	IncDispatched(eventType string)
	IncFailed(eventType string)
	IncAbandoned(eventType string)
	IncDuplicate(eventType string)
}

type DispatcherParams struct {
	Config     config.OutboxConfig
	Logger     *logger.Logger
	Repository outboxRepository
	Registry   resolver
	Router     router
	Sender     mailer.Sender
	Guard      claimer
	Metrics    Recorder
	Now        func() time.Time
}

// Dispatcher polls the outbox and mails each event exactly once per
// successful claim.
type Dispatcher struct {
	logg         *logger.Logger
	repo         outboxRepository
	registry     resolver
	router       router
	sender       mailer.Sender
	guard        claimer
	metrics      Recorder
	now          func() time.Time
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
	jitter       *rand.Rand
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.Router == nil:
		return nil, errors.New("mail router is required")
	case params.Sender == nil:
		return nil, errors.New("mail sender is required")
	}
	batch := params.Config.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	maxAttempts := params.Config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	poll := time.Duration(params.Config.PollIntervalMS) * time.Millisecond
	if poll <= 0 {
		poll = defaultPollInterval
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Dispatcher{
		logg:         params.Logger,
		repo:         params.Repository,
		registry:     params.Registry,
		router:       params.Router,
		sender:       params.Sender,
		guard:        params.Guard,
		metrics:      params.Metrics,
		now:          now,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: poll,
		jitter:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Run polls until ctx is canceled, backing off while batches fail.
func (d *Dispatcher) Run(ctx context.Context) error {
	backoff := d.pollInterval
	for {
		select {
		case <-ctx.Done():
			d.logg.Info(ctx, "outbox dispatcher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := d.ProcessBatch(ctx)
		if err != nil {
			d.logg.Error(ctx, "outbox dispatcher batch error", err)
			backoff = nextBackoff(backoff, d.pollInterval, maxBackoff)
			if err := sleep(ctx, d.withJitter(backoff)); err != nil {
				return err
			}
			continue
		}
		backoff = d.pollInterval
		if processed > 0 {
			continue
		}
		if err := sleep(ctx, d.withJitter(d.pollInterval)); err != nil {
			return err
		}
	}
}

// ProcessBatch handles one batch and returns how many events it looked at.
// Errors from individual sends are recorded on the rows; only bookkeeping
// failures are returned.
func (d *Dispatcher) ProcessBatch(ctx context.Context) (int, error) {
	events, err := d.repo.FetchUnpublished(ctx, d.batchSize, d.maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox events: %w", err)
	}
	var errs error
	for _, event := range events {
		errs = multierr.Append(errs, d.handle(ctx, event))
	}
	return len(events), errs
}

func (d *Dispatcher) handle(ctx context.Context, event models.OutboxEvent) error {
	eventType := string(event.EventType)
	fields := d.eventFields(event)

	resolved, err := d.registry.Resolve(event)
	if err != nil {
		return d.abandon(ctx, event, fields, err)
	}
	eventID := resolved.Envelope.EventID
	if eventID == uuid.Nil {
		eventID = event.ID
	}
	fields["event_id"] = eventID.String()

	if d.guard != nil {
		fresh, err := d.guard.Claim(ctx, consumerName, eventID)
		if err != nil {
			return d.retry(ctx, event, fields, fmt.Errorf("claim event: %w", err))
		}
		if !fresh {
			if d.metrics != nil {
				d.metrics.IncDuplicate(eventType)
			}
			d.logg.Info(d.logg.WithFields(ctx, fields), "outbox event already handled")
			return d.markPublished(ctx, event)
		}
	}

	if err := d.deliver(ctx, resolved); err != nil {
		if d.guard != nil {
			if relErr := d.guard.Release(ctx, consumerName, eventID); relErr != nil {
				d.logg.Warn(d.logg.WithField(ctx, "error", relErr.Error()), "idempotency claim not released")
			}
		}
		var nonRetry registry.NonRetryableError
		if errors.As(err, &nonRetry) {
			return d.abandon(ctx, event, fields, err)
		}
		return d.retry(ctx, event, fields, err)
	}

	if err := d.markPublished(ctx, event); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.IncDispatched(eventType)
	}
	d.logg.Info(d.logg.WithFields(ctx, fields), "outbox event dispatched")
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, resolved *registry.ResolvedEvent) error {
	messages, err := d.router.Messages(ctx, resolved)
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, defaultSendTimeout)
	defer cancel()
	for _, msg := range messages {
		if err := d.sender.Send(sendCtx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) retry(ctx context.Context, event models.OutboxEvent, fields map[string]any, cause error) error {
	attempted := event
	attempted.AttemptCount++
	fields["attempt_count"] = attempted.AttemptCount
	if attempted.Exhausted(d.maxAttempts) {
		fields["terminal_reason"] = "max_attempts"
		return d.abandon(ctx, event, fields, fmt.Errorf("max dispatch attempts reached: %w", cause))
	}
	if d.metrics != nil {
		d.metrics.IncFailed(string(event.EventType))
	}
	logCtx := d.logg.WithField(d.logg.WithFields(ctx, fields), "error", cause.Error())
	d.logg.Warn(logCtx, "outbox dispatch failed")
	if err := d.repo.MarkFailed(ctx, event.ID, cause, 0); err != nil {
		return fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	return nil
}

func (d *Dispatcher) abandon(ctx context.Context, event models.OutboxEvent, fields map[string]any, cause error) error {
	if d.metrics != nil {
		d.metrics.IncAbandoned(string(event.EventType))
	}
	logCtx := d.logg.WithField(d.logg.WithFields(ctx, fields), "error", cause.Error())
	d.logg.Warn(logCtx, "outbox event will not be retried")
	if err := d.repo.MarkFailed(ctx, event.ID, cause, d.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func (d *Dispatcher) markPublished(ctx context.Context, event models.OutboxEvent) error {
	if err := d.repo.MarkPublished(ctx, event.ID, d.now()); err != nil {
		return fmt.Errorf("mark published %s: %w", event.ID, err)
	}
	return nil
}

func (d *Dispatcher) eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (d *Dispatcher) withJitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	return base + time.Duration(d.jitter.Int63n(int64(jitterWindow)))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, ceiling time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > ceiling {
		return ceiling
	}
	return next
}
