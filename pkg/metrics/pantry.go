package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PantryMetrics records engine operation outcomes and optimistic retries.
type PantryMetrics struct {
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
	retries    *prometheus.CounterVec
}

// NewPantryMetrics registers the pantry metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewPantryMetrics(reg prometheus.Registerer) *PantryMetrics {
	if reg == nil {
		return &PantryMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pantry_operation_duration_seconds",
		Help:    "Duration of pantry engine operations in seconds, including the re-list.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pantry_operations_total",
		Help: "Pantry engine operations by outcome.",
	}, []string{"op", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pantry_version_conflicts_total",
		Help: "Optimistic version conflicts that triggered a retry.",
	}, []string{"op"})
	reg.MustRegister(duration, operations, retries)
	return &PantryMetrics{duration: duration, operations: operations, retries: retries}
}

// Observe records one finished operation.
func (p *PantryMetrics) Observe(op, outcome string, elapsed time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	op = normalizeLabel(op)
	p.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	p.operations.WithLabelValues(op, normalizeLabel(outcome)).Inc()
}

// IncConflict counts a lost version race for op.
func (p *PantryMetrics) IncConflict(op string) {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
