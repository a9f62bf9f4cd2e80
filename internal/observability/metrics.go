// Package observability holds the Prometheus instrumentation for the
// dispatch path.
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intentbridge",
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Total dispatched intent requests.",
		},
		[]string{"intent", "transport", "outcome"},
	)
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "intentbridge",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Dispatch duration from transport open to response, in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"intent", "transport", "outcome"},
	)
	sessionHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intentbridge",
			Subsystem: "sessions",
			Name:      "cache_hits_total",
			Help:      "Dispatches that found an applicable implicit session.",
		},
		[]string{"intent"},
	)
	validationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intentbridge",
			Subsystem: "dispatch",
			Name:      "validation_failures_total",
			Help:      "Requests rejected before any transport work.",
		},
		[]string{"intent", "kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(dispatches, dispatchDuration, sessionHits, validationFailures)
	})
}

func RecordDispatch(intent, transport, outcome string, duration time.Duration) {
	RegisterMetrics()
	dispatches.WithLabelValues(intent, transport, outcome).Inc()
	dispatchDuration.WithLabelValues(intent, transport, outcome).Observe(duration.Seconds())
}

func RecordSessionHit(intent string) {
	RegisterMetrics()
	sessionHits.WithLabelValues(intent).Inc()
}

func RecordValidationFailure(intent, kind string) {
	RegisterMetrics()
	validationFailures.WithLabelValues(intent, kind).Inc()
}
