package anonymizer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signalHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_anonymizer_signal_hits_total",
		Help: "Positive anonymizer signals by sub-check",
	}, []string{"signal"})

	signalErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_anonymizer_signal_errors_total",
		Help: "Errored anonymizer sub-checks degraded to no-signal",
	}, []string{"signal"})

	evaluateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gatekeeper_anonymizer_evaluate_duration_seconds",
		Help:    "Duration of full anonymizer evaluations",
		Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10},
	})
)
