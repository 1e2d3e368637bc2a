package metrics

import "github.com/prometheus/client_golang/prometheus"

// Checkout submission outcomes.
const (
	SubmitSucceeded = "succeeded"
	SubmitFailed    = "failed"
	SubmitRejected  = "in_progress"
)

// CheckoutMetrics counts cart transitions and checkout progress on the
// server-side sessions.
type CheckoutMetrics struct {
	cartActions *prometheus.CounterVec
	submissions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	sessions    prometheus.Gauge
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	m := &CheckoutMetrics{
		cartActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "actions_total",
			Help:      "Cart store transitions by action.",
		}, []string{"action"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "submissions_total",
			Help:      "Checkout submissions by outcome.",
		}, []string{"result"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "advance_rejected_total",
			Help:      "Advance attempts blocked by step validation.",
		}, []string{"step"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "active_sessions",
			Help:      "Checkout sessions currently held in memory.",
		}),
	}
	reg.MustRegister(m.cartActions, m.submissions, m.rejected, m.sessions)
	return m
}

func (m *CheckoutMetrics) IncCartAction(action string) {
	if m == nil || m.cartActions == nil {
		return
	}
	m.cartActions.WithLabelValues(normalizeLabel(action)).Inc()
}

func (m *CheckoutMetrics) IncSubmission(result string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *CheckoutMetrics) IncAdvanceRejected(step string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(step)).Inc()
}

func (m *CheckoutMetrics) SetActiveSessions(n int) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Set(float64(n))
}
