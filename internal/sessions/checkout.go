package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luxemarket/storefront-backend/internal/cart"
	"github.com/luxemarket/storefront-backend/internal/checkout"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

const (
	defaultSessionTTL = 30 * time.Minute
	cartReadTimeout   = 5 * time.Second
	minSweepInterval  = time.Second
)

// CheckoutRecorder receives checkout metrics, typically metrics.CheckoutMetrics.
type CheckoutRecorder interface {
	checkout.Recorder
	SetActiveSessions(n int)
}

type CheckoutOptions struct {
	Steps         []checkout.Step
	RedirectDelay time.Duration
	SessionTTL    time.Duration
	Metrics       CheckoutRecorder
	Logger        *logger.Logger
	Now           func() time.Time
}

// CheckoutView is what the checkout endpoints return.
type CheckoutView struct {
	checkout.Snapshot
	Cart    cart.State            `json:"cart"`
	Order   *checkout.PlacedOrder `json:"order,omitempty"`
	Notices []cart.Notice         `json:"-"`
}

type checkoutSession struct {
	wf       *checkout.Workflow
	notices  *collector
	lastSeen time.Time
}

// CheckoutRegistry holds one checkout workflow per user. Sessions end when
// the post-order redirect fires, when cancelled, or after SessionTTL idle.
type CheckoutRegistry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*checkoutSession

	// begins serializes Begin per user so a resume never races a fresh start.
	begins *userLocks

	carts  *CartService
	placer checkout.OrderPlacer
	opts   CheckoutOptions
}

func NewCheckoutRegistry(carts *CartService, placer checkout.OrderPlacer, opts CheckoutOptions) (*CheckoutRegistry, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if placer == nil {
		return nil, fmt.Errorf("order placer required")
	}
	if len(opts.Steps) == 0 {
		opts.Steps = checkout.TwoStep()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CheckoutRegistry{
		sessions: make(map[uuid.UUID]*checkoutSession),
		begins:   newUserLocks(),
		carts:    carts,
		placer:   placer,
		opts:     opts,
	}, nil
}

// Begin starts a checkout, or resumes the user's unfinished one.
func (r *CheckoutRegistry) Begin(ctx context.Context, userID uuid.UUID) (CheckoutView, error) {
	if userID == uuid.Nil {
		return CheckoutView{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	unlock := r.begins.lock(userID.String())
	defer unlock()

	if sess, ok := r.get(userID); ok {
		state := sess.wf.State()
		if state.Submitting {
			return r.view(ctx, userID, sess, nil), nil
		}
		if !state.Complete {
			if err := sess.wf.Begin(); err != nil {
				r.evict(userID, sess.wf)
				return CheckoutView{}, workflowError(err)
			}
			r.touch(sess)
			return r.view(ctx, userID, sess, nil), nil
		}
		r.evict(userID, sess.wf)
	}

	notices := &collector{}
	sess := &checkoutSession{notices: notices}
	wf, err := checkout.New(checkout.Params{
		Steps:         r.opts.Steps,
		Cart:          &liveCart{carts: r.carts, userID: userID},
		Placer:        r.placer,
		Credential:    userID.String(),
		Navigator:     r.navigator(userID, sess),
		Notifier:      notices,
		RedirectDelay: r.opts.RedirectDelay,
		Logger:        r.opts.Logger,
		Metrics:       r.opts.Metrics,
	})
	if err != nil {
		return CheckoutView{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "start checkout")
	}
	sess.wf = wf
	if err := wf.Begin(); err != nil {
		wf.Close()
		return CheckoutView{}, workflowError(err)
	}

	r.mu.Lock()
	if prev, ok := r.sessions[userID]; ok {
		prev.wf.Close()
	}
	sess.lastSeen = r.opts.Now()
	r.sessions[userID] = sess
	r.mu.Unlock()
	r.recordActive()

	return r.view(ctx, userID, sess, nil), nil
}

func (r *CheckoutRegistry) State(ctx context.Context, userID uuid.UUID) (CheckoutView, error) {
	sess, err := r.active(userID)
	if err != nil {
		return CheckoutView{}, err
	}
	return r.view(ctx, userID, sess, nil), nil
}

func (r *CheckoutRegistry) SetShipping(ctx context.Context, userID uuid.UUID, info checkout.ShippingInfo) (CheckoutView, error) {
	return r.apply(ctx, userID, func(wf *checkout.Workflow) error { return wf.SetShipping(info) })
}

func (r *CheckoutRegistry) SetPayment(ctx context.Context, userID uuid.UUID, info checkout.PaymentInfo) (CheckoutView, error) {
	return r.apply(ctx, userID, func(wf *checkout.Workflow) error { return wf.SetPayment(info) })
}

func (r *CheckoutRegistry) Advance(ctx context.Context, userID uuid.UUID) (CheckoutView, error) {
	return r.apply(ctx, userID, func(wf *checkout.Workflow) error { return wf.Advance() })
}

func (r *CheckoutRegistry) Retreat(ctx context.Context, userID uuid.UUID) (CheckoutView, error) {
	return r.apply(ctx, userID, func(wf *checkout.Workflow) error { return wf.Retreat() })
}

// Submit places the order. Notices raised by a failed submission are
// returned alongside the error.
func (r *CheckoutRegistry) Submit(ctx context.Context, userID uuid.UUID) (CheckoutView, error) {
	sess, err := r.active(userID)
	if err != nil {
		return CheckoutView{}, err
	}
	placed, err := sess.wf.Submit(ctx)
	if err != nil {
		return CheckoutView{Notices: sess.notices.drain()}, workflowError(err)
	}
	return r.view(ctx, userID, sess, &placed), nil
}

// Cancel ends the user's checkout, if any.
func (r *CheckoutRegistry) Cancel(userID uuid.UUID) {
	if sess, ok := r.get(userID); ok {
		r.evict(userID, sess.wf)
	}
}

// Active reports the number of live sessions.
func (r *CheckoutRegistry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (r *CheckoutRegistry) Sweep() int {
	cutoff := r.opts.Now().Add(-r.opts.SessionTTL)
	var stale []*checkout.Workflow

	r.mu.Lock()
	for id, sess := range r.sessions {
		if sess.lastSeen.Before(cutoff) && !sess.wf.State().Submitting {
			stale = append(stale, sess.wf)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, wf := range stale {
		wf.Close()
	}
	if len(stale) > 0 {
		r.recordActive()
	}
	return len(stale)
}

// Run sweeps idle sessions until ctx is done, then closes every session.
func (r *CheckoutRegistry) Run(ctx context.Context) {
	interval := r.opts.SessionTTL / 4
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 && r.opts.Logger != nil {
				r.opts.Logger.Debug(r.opts.Logger.WithField(ctx, "evicted", n), "idle checkout sessions evicted")
			}
		}
	}
}

func (r *CheckoutRegistry) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*checkoutSession)
	r.mu.Unlock()
	for _, sess := range sessions {
		sess.wf.Close()
	}
	r.recordActive()
}

func (r *CheckoutRegistry) apply(ctx context.Context, userID uuid.UUID, fn func(*checkout.Workflow) error) (CheckoutView, error) {
	sess, err := r.active(userID)
	if err != nil {
		return CheckoutView{}, err
	}
	if err := fn(sess.wf); err != nil {
		return CheckoutView{Notices: sess.notices.drain()}, workflowError(err)
	}
	return r.view(ctx, userID, sess, nil), nil
}

func (r *CheckoutRegistry) get(userID uuid.UUID) (*checkoutSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[userID]
	return sess, ok
}

func (r *CheckoutRegistry) active(userID uuid.UUID) (*checkoutSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[userID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	sess.lastSeen = r.opts.Now()
	return sess, nil
}

func (r *CheckoutRegistry) touch(sess *checkoutSession) {
	r.mu.Lock()
	sess.lastSeen = r.opts.Now()
	r.mu.Unlock()
}

// evict removes the session only if it still holds wf.
func (r *CheckoutRegistry) evict(userID uuid.UUID, wf *checkout.Workflow) {
	r.mu.Lock()
	sess, ok := r.sessions[userID]
	removed := ok && sess.wf == wf
	if removed {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()

	wf.Close()
	if removed {
		r.recordActive()
	}
}

func (r *CheckoutRegistry) navigator(userID uuid.UUID, sess *checkoutSession) checkout.Navigator {
	return checkout.NavigatorFunc(func(path string) {
		if path == checkout.RouteHome && sess.wf != nil {
			r.evict(userID, sess.wf)
		}
	})
}

func (r *CheckoutRegistry) view(ctx context.Context, userID uuid.UUID, sess *checkoutSession, placed *checkout.PlacedOrder) CheckoutView {
	state, err := r.carts.Get(ctx, userID)
	if err != nil {
		state = cart.Empty()
	}
	return CheckoutView{
		Snapshot: sess.wf.State(),
		Cart:     state,
		Order:    placed,
		Notices:  sess.notices.drain(),
	}
}

func (r *CheckoutRegistry) recordActive() {
	if r.opts.Metrics != nil {
		r.opts.Metrics.SetActiveSessions(r.Active())
	}
}

// liveCart reads the user's persisted cart on every access so edits made
// through the cart endpoints are visible to an open checkout.
type liveCart struct {
	carts  *CartService
	userID uuid.UUID
}

func (c *liveCart) Snapshot() cart.State {
	ctx, cancel := context.WithTimeout(context.Background(), cartReadTimeout)
	defer cancel()
	state, err := c.carts.Get(ctx, c.userID)
	if err != nil {
		return cart.Empty()
	}
	return state
}

func (c *liveCart) Clear(ctx context.Context) (cart.State, error) {
	res, err := c.carts.Clear(ctx, c.userID)
	return res.Cart, err
}

func (c *liveCart) RemoveOrdered(ctx context.Context, ordered cart.State) (cart.State, error) {
	res, err := c.carts.RemoveOrdered(ctx, c.userID, ordered)
	return res.Cart, err
}

// workflowError maps workflow failures onto typed API errors.
func workflowError(err error) error {
	var validation *checkout.ValidationError
	var submit *checkout.SubmitError
	switch {
	case errors.As(err, &validation):
		return pkgerrors.New(pkgerrors.CodeValidation, "missing information").
			WithDetails(map[string]any{"step": validation.Step, "fields": validation.Fields})
	case errors.As(err, &submit):
		if typed := pkgerrors.As(submit.Err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, submit.Err, "place order")
	case errors.Is(err, checkout.ErrEmptyCart):
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").
			WithDetails(map[string]any{"redirect": checkout.RouteProducts})
	case errors.Is(err, checkout.ErrSubmitInProgress):
		return pkgerrors.New(pkgerrors.CodeConflict, "order submission already in progress")
	case errors.Is(err, checkout.ErrClosed):
		return pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	case errors.Is(err, checkout.ErrComplete),
		errors.Is(err, checkout.ErrNotFinalStep),
		errors.Is(err, checkout.ErrFirstStep),
		errors.Is(err, checkout.ErrLastStep):
		return pkgerrors.New(pkgerrors.CodeStateConflict, strings.TrimPrefix(err.Error(), "checkout: "))
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout")
}
