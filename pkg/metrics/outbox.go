package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics tracks the dispatcher loop.
type OutboxMetrics struct {
	dispatched *prometheus.CounterVec
	failed     *prometheus.CounterVec
	deadLetter *prometheus.CounterVec
	duplicates *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: namespace, Subsystem: "outbox", Name: name, Help: help}
	}
	m := &OutboxMetrics{
		dispatched: prometheus.NewCounterVec(opts("dispatched_total", "Events handled and marked published."), []string{"event_type"}),
		failed:     prometheus.NewCounterVec(opts("failed_total", "Dispatch attempts that returned an error."), []string{"event_type"}),
		deadLetter: prometheus.NewCounterVec(opts("abandoned_total", "Events that exhausted their attempts."), []string{"event_type"}),
		duplicates: prometheus.NewCounterVec(opts("duplicates_total", "Events skipped by the idempotency guard."), []string{"event_type"}),
	}
	reg.MustRegister(m.dispatched, m.failed, m.deadLetter, m.duplicates)
	return m
}

func (m *OutboxMetrics) IncDispatched(eventType string) {
	if m == nil || m.dispatched == nil {
		return
	}
	m.dispatched.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) IncAbandoned(eventType string) {
	if m == nil || m.deadLetter == nil {
		return
	}
	m.deadLetter.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) IncDuplicate(eventType string) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(eventType)).Inc()
}
