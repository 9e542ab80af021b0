package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision module.
type Metrics struct {
	// Terminal outcomes by outcome and reject kind ("" when not rejected)
	Outcomes *prometheus.CounterVec

	// Full evaluation latency including signal gathering
	EvaluateLatency prometheus.Histogram
}

// New creates a Metrics instance with all decision module metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_decision_outcomes_total",
			Help: "Total verification outcomes by outcome and reject kind",
		}, []string{"outcome", "reject_kind"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatekeeper_decision_evaluate_duration_seconds",
			Help:    "Duration of a full verification evaluation",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementOutcome records a terminal outcome.
func (m *Metrics) IncrementOutcome(outcome, rejectKind string) {
	if m != nil {
		m.Outcomes.WithLabelValues(outcome, rejectKind).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
