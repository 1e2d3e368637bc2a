package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/luxemarket/storefront-backend/internal/users"
	"github.com/luxemarket/storefront-backend/pkg/config"
	"github.com/luxemarket/storefront-backend/pkg/db"
	"github.com/luxemarket/storefront-backend/pkg/db/dbtest"
	"github.com/luxemarket/storefront-backend/pkg/db/models"
	dbtypes "github.com/luxemarket/storefront-backend/pkg/db/types"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/mailer"
	"github.com/luxemarket/storefront-backend/pkg/outbox"
	"github.com/luxemarket/storefront-backend/pkg/outbox/idempotency"
	"github.com/luxemarket/storefront-backend/pkg/outbox/payloads"
	"github.com/luxemarket/storefront-backend/pkg/outbox/registry"
)

type memoryStore struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]bool{}}
}

func (m *memoryStore) Get(context.Context, string) (string, error) { return "", nil }

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "lm:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func (m *memoryStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

type countingMetrics struct {
	dispatched, failed, abandoned, duplicate int
}

func (c *countingMetrics) IncDispatched(string) { c.dispatched++ }
func (c *countingMetrics) IncFailed(string)     { c.failed++ }
func (c *countingMetrics) IncAbandoned(string)  { c.abandoned++ }
func (c *countingMetrics) IncDuplicate(string)  { c.duplicate++ }

type harness struct {
	client  *db.Client
	repo    *outbox.Repository
	emitter *outbox.Service
	users   *users.Repository
	store   *memoryStore
	guard   *idempotency.Guard
	sender  *mailer.Recorder
	metrics *countingMetrics
	d       *Dispatcher
}

func newHarness(t *testing.T, maxAttempts int, adminAddress string) *harness {
	t.Helper()
	client := dbtest.NewSQLite(t)
	h := &harness{
		client:  client,
		repo:    outbox.NewRepository(client.DB()),
		users:   users.NewRepository(client.DB()),
		store:   newMemoryStore(),
		sender:  &mailer.Recorder{},
		metrics: &countingMetrics{},
	}
	h.emitter = outbox.NewService(h.repo, logger.Nop())
	guard, err := idempotency.NewGuard(h.store, time.Hour)
	require.NoError(t, err)
	h.guard = guard
	router, err := NewRouter(h.users, adminAddress)
	require.NoError(t, err)
	h.d, err = NewDispatcher(DispatcherParams{
		Config:     config.OutboxConfig{BatchSize: 10, MaxAttempts: maxAttempts},
		Logger:     logger.Nop(),
		Repository: h.repo,
		Registry:   registry.NewEventRegistry(),
		Router:     router,
		Sender:     h.sender,
		Guard:      guard,
		Metrics:    h.metrics,
	})
	require.NoError(t, err)
	return h
}

func (h *harness) emit(t *testing.T, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, data any) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	aggregateID := uuid.New()
	err := h.client.WithTx(ctx, func(tx *gorm.DB) error {
		return h.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: aggregate,
			AggregateID:   aggregateID,
			Data:          data,
		})
	})
	require.NoError(t, err)
	var row models.OutboxEvent
	require.NoError(t, h.client.DB().First(&row, "aggregate_id = ?", aggregateID).Error)
	return row.ID
}

func (h *harness) row(t *testing.T, id uuid.UUID) models.OutboxEvent {
	t.Helper()
	var row models.OutboxEvent
	require.NoError(t, h.client.DB().First(&row, "id = ?", id).Error)
	return row
}

func orderPlaced() payloads.OrderPlacedEvent {
	return payloads.OrderPlacedEvent{
		OrderID:      uuid.New(),
		UserID:       uuid.New(),
		CustomerName: "Ana",
		Email:        "ana@example.com",
		Items: []payloads.OrderLine{
			{ProductID: uuid.New(), Name: "Inverter 1100VA", Quantity: 2, Price: decimal.NewFromInt(4500)},
		},
		TotalPrice: decimal.NewFromInt(9000),
		PlacedAt:   time.Now().UTC(),
	}
}

func TestDispatchSendsAndMarksPublished(t *testing.T) {
	h := newHarness(t, 5, "ops@example.com")
	ctx := context.Background()

	orderRow := h.emit(t, enums.EventOrderPlaced, enums.AggregateOrder, orderPlaced())
	welcomeRow := h.emit(t, enums.EventUserRegistered, enums.AggregateUser, payloads.UserRegisteredEvent{
		UserID: uuid.New(), Name: "Ben", Email: "ben@example.com",
	})

	n, err := h.d.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sent := h.sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, []string{"ana@example.com"}, sent[0].To)
	assert.Contains(t, sent[0].Body, "Inverter 1100VA")
	assert.Equal(t, []string{"ben@example.com"}, sent[1].To)

	assert.NotNil(t, h.row(t, orderRow).PublishedAt)
	assert.NotNil(t, h.row(t, welcomeRow).PublishedAt)
	assert.Equal(t, 2, h.metrics.dispatched)

	n, err = h.d.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDispatchSkipsClaimedEvents(t *testing.T) {
	h := newHarness(t, 5, "")
	ctx := context.Background()

	id := h.emit(t, enums.EventOrderPlaced, enums.AggregateOrder, orderPlaced())
	fresh, err := h.guard.Claim(ctx, consumerName, id)
	require.NoError(t, err)
	require.True(t, fresh)

	_, err = h.d.ProcessBatch(ctx)
	require.NoError(t, err)

	assert.Empty(t, h.sender.Sent())
	assert.NotNil(t, h.row(t, id).PublishedAt)
	assert.Equal(t, 1, h.metrics.duplicate)
}

func TestDispatchRetriesSendFailures(t *testing.T) {
	h := newHarness(t, 5, "")
	ctx := context.Background()
	h.sender.Err = errors.New("smtp unavailable")

	id := h.emit(t, enums.EventOrderPlaced, enums.AggregateOrder, orderPlaced())
	_, err := h.d.ProcessBatch(ctx)
	require.NoError(t, err)

	row := h.row(t, id)
	assert.Nil(t, row.PublishedAt)
	assert.Equal(t, 1, row.AttemptCount)
	require.NotNil(t, row.LastError)
	assert.Contains(t, *row.LastError, "smtp unavailable")
	assert.Zero(t, h.store.size(), "claim must be released for the retry")
	assert.Equal(t, 1, h.metrics.failed)

	h.sender.Err = nil
	_, err = h.d.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Len(t, h.sender.Sent(), 1)
	assert.NotNil(t, h.row(t, id).PublishedAt)
}

func TestDispatchAbandonsAfterMaxAttempts(t *testing.T) {
	h := newHarness(t, 2, "")
	ctx := context.Background()
	h.sender.Err = errors.New("mailbox full")

	id := h.emit(t, enums.EventOrderPlaced, enums.AggregateOrder, orderPlaced())
	for i := 0; i < 3; i++ {
		_, err := h.d.ProcessBatch(ctx)
		require.NoError(t, err)
	}

	row := h.row(t, id)
	assert.Nil(t, row.PublishedAt)
	assert.Equal(t, 2, row.AttemptCount)
	assert.Equal(t, 1, h.metrics.failed)
	assert.Equal(t, 1, h.metrics.abandoned)

	pending, err := h.repo.FetchUnpublished(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDispatchAbandonsMalformedPayload(t *testing.T) {
	h := newHarness(t, 5, "")
	ctx := context.Background()

	event := &models.OutboxEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       dbtypes.JSONText(`{"version":1,"data":"not an order"}`),
	}
	require.NoError(t, h.repo.Insert(h.client.DB(), event))

	_, err := h.d.ProcessBatch(ctx)
	require.NoError(t, err)

	row := h.row(t, event.ID)
	assert.Equal(t, 5, row.AttemptCount)
	require.NotNil(t, row.LastError)
	assert.True(t, strings.Contains(*row.LastError, "decode"))
	assert.Equal(t, 1, h.metrics.abandoned)
	assert.Empty(t, h.sender.Sent())
}

func TestInstallationMailRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("request goes to the admin address", func(t *testing.T) {
		h := newHarness(t, 5, "ops@example.com")
		h.emit(t, enums.EventInstallationRequested, enums.AggregateInstallation, payloads.InstallationRequestedEvent{
			RequestID: uuid.New(), UserID: uuid.New(), Name: "Chitra", Phone: "9876543210", Address: "12 MG Road",
		})
		_, err := h.d.ProcessBatch(ctx)
		require.NoError(t, err)
		sent := h.sender.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, []string{"ops@example.com"}, sent[0].To)
		assert.Contains(t, sent[0].Body, "9876543210")
	})

	t.Run("request without admin address is published silently", func(t *testing.T) {
		h := newHarness(t, 5, "")
		id := h.emit(t, enums.EventInstallationRequested, enums.AggregateInstallation, payloads.InstallationRequestedEvent{
			RequestID: uuid.New(), UserID: uuid.New(), Name: "Chitra", Phone: "9876543210", Address: "12 MG Road",
		})
		_, err := h.d.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Empty(t, h.sender.Sent())
		assert.NotNil(t, h.row(t, id).PublishedAt)
	})

	t.Run("status update is mailed to the requester", func(t *testing.T) {
		h := newHarness(t, 5, "")
		user, err := h.users.Create(ctx, users.CreateUserDTO{
			Name: "Dev", Email: "dev@example.com", PasswordHash: "x", Role: enums.RoleUser,
		})
		require.NoError(t, err)
		h.emit(t, enums.EventInstallationUpdated, enums.AggregateInstallation, payloads.InstallationStatusChangedEvent{
			RequestID: uuid.New(), UserID: user.ID, Status: enums.InstallationStatusScheduled,
		})
		_, err = h.d.ProcessBatch(ctx)
		require.NoError(t, err)
		sent := h.sender.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, []string{"dev@example.com"}, sent[0].To)
		assert.Contains(t, sent[0].Body, "Scheduled")
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, 5, "")
	h.emit(t, enums.EventOrderPlaced, enums.AggregateOrder, orderPlaced())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.d.Run(ctx) }()
	require.Eventually(t, func() bool { return len(h.sender.Sent()) == 1 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestNextBackoff(t *testing.T) {
	base := 500 * time.Millisecond
	assert.Equal(t, time.Second, nextBackoff(base, base, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(8*time.Second, base, maxBackoff))
	assert.Equal(t, time.Second, nextBackoff(0, base, maxBackoff))
}
