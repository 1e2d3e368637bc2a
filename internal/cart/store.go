package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/luxemarket/storefront-backend/pkg/kv"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

// ActionRecorder counts applied transitions, typically metrics.CheckoutMetrics.
type ActionRecorder interface {
	IncCartAction(action string)
}

// Options configure a Store. Zero values are usable.
type Options struct {
	// Key overrides the storage key; defaults to kv.KeyCart.
	Key      string
	Notifier Notifier
	Logger   *logger.Logger
	Metrics  ActionRecorder
}

// Store is the single authoritative cart. Every mutation goes through
// Reduce and is persisted before the store's lock is released.
type Store struct {
	mu       sync.Mutex
	state    State
	storage  kv.Storage
	key      string
	notifier Notifier
	logg     *logger.Logger
	metrics  ActionRecorder
}

// NewStore restores the persisted snapshot when one is readable and starts
// empty otherwise.
func NewStore(ctx context.Context, storage kv.Storage, opts Options) *Store {
	s := &Store{
		state:    Empty(),
		storage:  storage,
		key:      opts.Key,
		notifier: opts.Notifier,
		logg:     opts.Logger,
		metrics:  opts.Metrics,
	}
	if s.key == "" {
		s.key = kv.KeyCart
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if snapshot, ok := s.restore(ctx); ok {
		s.state = Reduce(s.state, Load{Snapshot: snapshot})
	}
	return s
}

func (s *Store) restore(ctx context.Context) (State, bool) {
	if s.storage == nil {
		return State{}, false
	}
	raw, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.debug(ctx, "cart snapshot unreadable; starting empty", err)
		return State{}, false
	}
	if !ok || raw == "" {
		return State{}, false
	}
	var snapshot State
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		s.debug(ctx, "cart snapshot malformed; starting empty", err)
		return State{}, false
	}
	return snapshot, true
}

func (s *Store) debug(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Debug(s.logg.WithField(ctx, "error", err.Error()), msg)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Add increments the product's line or appends a new one.
func (s *Store) Add(ctx context.Context, product Product) (State, error) {
	return s.dispatch(ctx, "add", AddItem{Product: product}, func(State) *Notice {
		n := addedNotice(product.Name)
		return &n
	})
}

// Remove decrements the product's line, dropping it at zero.
func (s *Store) Remove(ctx context.Context, productID string) (State, error) {
	return s.dispatch(ctx, "remove", RemoveItem{ProductID: productID}, nil)
}

// Delete drops the product's line whatever its quantity.
func (s *Store) Delete(ctx context.Context, productID string) (State, error) {
	return s.dispatch(ctx, "delete", DeleteItem{ProductID: productID}, func(prev State) *Notice {
		name := productID
		if line, ok := prev.Find(productID); ok {
			name = line.Name
		}
		n := removedNotice(name)
		return &n
	})
}

func (s *Store) Clear(ctx context.Context) (State, error) {
	return s.dispatch(ctx, "clear", ClearCart{}, func(State) *Notice {
		n := clearedNotice()
		return &n
	})
}

// dispatch applies action, persists the result and then notifies outside
// the lock so notifiers may read the store.
func (s *Store) dispatch(ctx context.Context, name string, action Action, notice func(prev State) *Notice) (State, error) {
	s.mu.Lock()
	prev := s.state
	s.state = Reduce(prev, action)
	next := s.state.Clone()
	err := s.persist(ctx, next)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.IncCartAction(name)
	}
	if notice != nil {
		s.notifier.Notify(*notice(prev))
	}
	return next, err
}

func (s *Store) persist(ctx context.Context, state State) error {
	if s.storage == nil {
		return nil
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Set(ctx, s.key, string(raw)); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart snapshot not persisted")
		}
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}
