// Package checkout drives the linear checkout steps over a cart and performs
// exactly-once order submission.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luxemarket/storefront-backend/internal/cart"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/metrics"
)

// Routes the workflow navigates to.
const (
	RouteProducts = "/products"
	RouteHome     = "/"
)

const DefaultRedirectDelay = 5 * time.Second

// Payment methods recorded on the submission.
const (
	PaymentCashOnDelivery = "Cash on Delivery"
	PaymentCard           = "Card"
)

// OrderLine is one cart line as sent to the order placement API.
type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
}

// PaymentSummary is all of PaymentInfo that may leave the workflow.
type PaymentSummary struct {
	Method    string `json:"method"`
	CardLast4 string `json:"cardLast4,omitempty"`
}

// OrderSubmission is built from the cart and form at submit time.
type OrderSubmission struct {
	Items        []OrderLine     `json:"items"`
	ShippingInfo ShippingInfo    `json:"shippingInfo"`
	PaymentInfo  PaymentSummary  `json:"paymentInfo"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
}

// PlacedOrder is what the order placement API reports back.
type PlacedOrder struct {
	OrderID    string          `json:"orderId"`
	Status     string          `json:"status,omitempty"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// OrderPlacer places an order on behalf of the bearer of credential.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, submission OrderSubmission, credential string) (PlacedOrder, error)
}

// OrderPlacerFunc adapts a function to OrderPlacer.
type OrderPlacerFunc func(ctx context.Context, submission OrderSubmission, credential string) (PlacedOrder, error)

func (f OrderPlacerFunc) PlaceOrder(ctx context.Context, s OrderSubmission, credential string) (PlacedOrder, error) {
	return f(ctx, s, credential)
}

// Navigator performs route changes.
type Navigator interface {
	GoTo(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) GoTo(path string) { f(path) }

// CartStore is the part of cart.Store the workflow uses.
type CartStore interface {
	Snapshot() cart.State
	Clear(ctx context.Context) (cart.State, error)
}

// OrderedLineRemover is implemented by carts that other writers can change
// while an order is in flight. After a successful submission the workflow
// takes only the ordered lines out of such a cart instead of clearing it.
type OrderedLineRemover interface {
	RemoveOrdered(ctx context.Context, ordered cart.State) (cart.State, error)
}

// Recorder receives checkout metrics, typically metrics.CheckoutMetrics.
type Recorder interface {
	IncSubmission(result string)
	IncAdvanceRejected(step string)
}

// Params wire a Workflow. Cart and Placer are required.
type Params struct {
	Steps         []Step
	Cart          CartStore
	Placer        OrderPlacer
	Credential    string
	Navigator     Navigator
	Notifier      cart.Notifier
	RedirectDelay time.Duration
	Logger        *logger.Logger
	Metrics       Recorder
}

// Workflow is a checkout step machine. It is safe for concurrent use.
type Workflow struct {
	mu sync.Mutex

	steps      []Step
	cursor     int
	form       FormData
	complete   bool
	submitting bool
	closed     bool
	orderID    string
	redirected string
	redirect   *time.Timer

	cart          CartStore
	placer        OrderPlacer
	credential    string
	nav           Navigator
	notifier      cart.Notifier
	redirectDelay time.Duration
	logg          *logger.Logger
	metrics       Recorder
}

func New(p Params) (*Workflow, error) {
	if p.Cart == nil {
		return nil, errors.New("checkout: cart store required")
	}
	if p.Placer == nil {
		return nil, errors.New("checkout: order placer required")
	}
	steps := p.Steps
	if len(steps) == 0 {
		steps = TwoStep()
	}
	if steps[len(steps)-1].Name != StepReview {
		return nil, fmt.Errorf("checkout: last step must be %s", StepReview)
	}
	for i, step := range steps {
		if step.Validate == nil {
			return nil, fmt.Errorf("checkout: step %d (%s) has no validator", i+1, step.Name)
		}
	}
	w := &Workflow{
		steps:         append([]Step(nil), steps...),
		cursor:        1,
		cart:          p.Cart,
		placer:        p.Placer,
		credential:    p.Credential,
		nav:           p.Navigator,
		notifier:      p.Notifier,
		redirectDelay: p.RedirectDelay,
		logg:          p.Logger,
		metrics:       p.Metrics,
	}
	if w.nav == nil {
		w.nav = NavigatorFunc(func(string) {})
	}
	if w.notifier == nil {
		w.notifier = cart.NotifierFunc(func(cart.Notice) {})
	}
	if w.redirectDelay <= 0 {
		w.redirectDelay = DefaultRedirectDelay
	}
	return w, nil
}

// Begin redirects to the catalog when there is nothing to check out.
func (w *Workflow) Begin() error {
	w.mu.Lock()
	empty := w.cart.Snapshot().IsEmpty() && !w.complete
	if empty {
		w.redirected = RouteProducts
	}
	w.mu.Unlock()

	if empty {
		w.nav.GoTo(RouteProducts)
		return ErrEmptyCart
	}
	return nil
}

// SetShipping replaces the shipping fields.
func (w *Workflow) SetShipping(info ShippingInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return err
	}
	w.form.Shipping = trimShipping(info)
	return nil
}

// SetPayment replaces the payment fields.
func (w *Workflow) SetPayment(info PaymentInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return err
	}
	w.form.Payment = trimPayment(info)
	return nil
}

func (w *Workflow) editableLocked() error {
	switch {
	case w.closed:
		return ErrClosed
	case w.complete:
		return ErrComplete
	case w.submitting:
		return ErrSubmitInProgress
	}
	return nil
}

// Advance moves to the next step when the current step validates. On
// failure neither the cursor nor the form change.
func (w *Workflow) Advance() error {
	w.mu.Lock()
	if err := w.editableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.cursor >= len(w.steps) {
		w.mu.Unlock()
		return ErrLastStep
	}
	step := w.steps[w.cursor-1]
	if missing := step.Validate(w.form); len(missing) > 0 {
		w.mu.Unlock()
		return w.rejectStep(step.Name, missing)
	}
	w.cursor++
	w.mu.Unlock()
	return nil
}

func (w *Workflow) rejectStep(step StepName, missing []string) error {
	if w.metrics != nil {
		w.metrics.IncAdvanceRejected(string(step))
	}
	w.notifier.Notify(cart.Notice{
		Title:       "Missing Information",
		Description: fmt.Sprintf("Please fill in all required %s fields: %s.", step, strings.Join(missing, ", ")),
		Severity:    cart.SeverityDestructive,
	})
	return &ValidationError{Step: step, Fields: missing}
}

// Retreat moves back one step.
func (w *Workflow) Retreat() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return err
	}
	if w.cursor <= 1 {
		return ErrFirstStep
	}
	w.cursor--
	return nil
}

// Submit places the order from the final step. Only one submission can be
// in flight; concurrent callers get ErrSubmitInProgress.
func (w *Workflow) Submit(ctx context.Context) (PlacedOrder, error) {
	w.mu.Lock()
	if err := w.editableLocked(); err != nil {
		w.mu.Unlock()
		if errors.Is(err, ErrSubmitInProgress) && w.metrics != nil {
			w.metrics.IncSubmission(metrics.SubmitRejected)
		}
		return PlacedOrder{}, err
	}
	if w.cursor != len(w.steps) {
		w.mu.Unlock()
		return PlacedOrder{}, ErrNotFinalStep
	}
	for _, step := range w.steps {
		if missing := step.Validate(w.form); len(missing) > 0 {
			w.mu.Unlock()
			return PlacedOrder{}, w.rejectStep(step.Name, missing)
		}
	}
	snapshot := w.cart.Snapshot()
	if snapshot.IsEmpty() {
		w.mu.Unlock()
		return PlacedOrder{}, ErrEmptyCart
	}
	submission := w.buildSubmissionLocked(snapshot)
	w.submitting = true
	w.mu.Unlock()

	placed, err := w.placer.PlaceOrder(ctx, submission, w.credential)
	if err != nil {
		w.fail(ctx, err)
		return PlacedOrder{}, &SubmitError{Err: err}
	}
	w.succeed(ctx, snapshot, placed)
	return placed, nil
}

func (w *Workflow) buildSubmissionLocked(snapshot cart.State) OrderSubmission {
	lines := make([]OrderLine, 0, len(snapshot.Items))
	total := decimal.Zero
	for _, item := range snapshot.Items {
		lines = append(lines, OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
			ImageURL:  item.ImageRef,
		})
		total = total.Add(item.Subtotal())
	}
	payment := PaymentSummary{Method: PaymentCashOnDelivery}
	if hasStep(w.steps, StepPayment) {
		payment = PaymentSummary{Method: PaymentCard, CardLast4: w.form.Payment.Last4()}
	}
	return OrderSubmission{
		Items:        lines,
		ShippingInfo: w.form.Shipping,
		PaymentInfo:  payment,
		TotalPrice:   total,
	}
}

func (w *Workflow) fail(ctx context.Context, err error) {
	w.mu.Lock()
	w.submitting = false
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.IncSubmission(metrics.SubmitFailed)
	}
	if w.logg != nil {
		w.logg.Warn(w.logg.WithField(ctx, "error", err.Error()), "checkout submission failed")
	}
	w.notifier.Notify(cart.Notice{
		Title:       "Error",
		Description: "Failed to place order",
		Severity:    cart.SeverityDestructive,
	})
}

func (w *Workflow) succeed(ctx context.Context, ordered cart.State, placed PlacedOrder) {
	var err error
	if remover, ok := w.cart.(OrderedLineRemover); ok {
		_, err = remover.RemoveOrdered(ctx, ordered)
	} else {
		_, err = w.cart.Clear(ctx)
	}
	if err != nil && w.logg != nil {
		w.logg.Warn(w.logg.WithField(ctx, "error", err.Error()), "cart cleared but not persisted")
	}

	w.mu.Lock()
	w.submitting = false
	w.complete = true
	w.orderID = placed.OrderID
	w.form = FormData{}
	if !w.closed {
		w.redirect = time.AfterFunc(w.redirectDelay, w.fireRedirect)
	}
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.IncSubmission(metrics.SubmitSucceeded)
	}
	w.notifier.Notify(cart.Notice{
		Title:       "Success",
		Description: "Order placed successfully!",
		Severity:    cart.SeverityDefault,
	})
}

func (w *Workflow) fireRedirect() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.redirect = nil
	w.redirected = RouteHome
	w.mu.Unlock()
	w.nav.GoTo(RouteHome)
}

// Close cancels a pending redirect. Further mutations return ErrClosed.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.redirect != nil {
		w.redirect.Stop()
		w.redirect = nil
	}
}

// Snapshot is a read-only view of the workflow.
type Snapshot struct {
	Step       int        `json:"step"`
	StepName   StepName   `json:"stepName"`
	Steps      []StepName `json:"steps"`
	Form       FormData   `json:"form"`
	Complete   bool       `json:"complete"`
	Submitting bool       `json:"submitting"`
	OrderID    string     `json:"orderId,omitempty"`
	Redirect   string     `json:"redirect,omitempty"`
}

// State returns the current snapshot with card details masked.
func (w *Workflow) State() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]StepName, len(w.steps))
	for i, s := range w.steps {
		names[i] = s.Name
	}
	return Snapshot{
		Step:       w.cursor,
		StepName:   w.steps[w.cursor-1].Name,
		Steps:      names,
		Form:       w.form.masked(),
		Complete:   w.complete,
		Submitting: w.submitting,
		OrderID:    w.orderID,
		Redirect:   w.redirected,
	}
}
