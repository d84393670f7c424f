package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecipeMetrics records recipe suggestion outcomes and upstream latency.
type RecipeMetrics struct {
	duration prometheus.Histogram
	calls    *prometheus.CounterVec
}

func NewRecipeMetrics(reg prometheus.Registerer) *RecipeMetrics {
	if reg == nil {
		return &RecipeMetrics{}
	}
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recipe_generation_duration_seconds",
		Help:    "Upstream recipe generation latency in seconds.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
	})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipe_requests_total",
		Help: "Recipe suggestion requests by result (generated, cached, failed, invalid).",
	}, []string{"result"})
	reg.MustRegister(duration, calls)
	return &RecipeMetrics{duration: duration, calls: calls}
}

// ObserveGeneration records an upstream call latency.
func (r *RecipeMetrics) ObserveGeneration(elapsed time.Duration) {
	if r == nil || r.duration == nil {
		return
	}
	r.duration.Observe(elapsed.Seconds())
}

func (r *RecipeMetrics) Inc(result string) {
	if r == nil || r.calls == nil {
		return
	}
	r.calls.WithLabelValues(normalizeLabel(result)).Inc()
}
