package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records background maintenance runs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	purged   *prometheus.CounterVec
}

// NewJobMetrics registers the maintenance job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pantry_job_duration_seconds",
		Help:    "Duration of maintenance job runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pantry_job_runs_total",
		Help: "Maintenance job runs by outcome.",
	}, []string{"job", "outcome"})
	purged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pantry_job_purged_items_total",
		Help: "Pantry items removed by maintenance jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, purged)
	return &JobMetrics{duration: duration, runs: runs, purged: purged}
}

// ObserveRun records one finished job run.
func (j *JobMetrics) ObserveRun(job, outcome string, elapsed time.Duration) {
	if j == nil || j.duration == nil {
		return
	}
	job = normalizeLabel(job)
	j.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	j.runs.WithLabelValues(job, normalizeLabel(outcome)).Inc()
}

// AddPurged counts items a job deleted.
func (j *JobMetrics) AddPurged(job string, n int64) {
	if j == nil || j.purged == nil || n <= 0 {
		return
	}
	j.purged.WithLabelValues(normalizeLabel(job)).Add(float64(n))
}
