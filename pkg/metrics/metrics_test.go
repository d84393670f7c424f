package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPantryMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPantryMetrics(reg)
	m.Observe("add", "ok", 250*time.Millisecond)
	m.Observe("add", "storage_unavailable", 10*time.Millisecond)
	m.IncConflict("add")
	m.IncConflict("add")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "pantry_operations_total", map[string]string{"op": "add", "outcome": "ok"}); err != nil {
		t.Fatalf("fetch ok: %v", err)
	} else if got != 1 {
		t.Fatalf("expected ok=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "pantry_version_conflicts_total", map[string]string{"op": "add"}); err != nil {
		t.Fatalf("fetch conflicts: %v", err)
	} else if got != 2 {
		t.Fatalf("expected conflicts=2, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "pantry_operation_duration_seconds", map[string]string{"op": "add"}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestJobMetricsCountsRunsAndPurges(t *testing.T) {
	reg := prometheus.NewRegistry()
	jobs := NewJobMetrics(reg)
	jobs.ObserveRun("session-pantry-sweep", "ok", 20*time.Millisecond)
	jobs.ObserveRun("session-pantry-sweep", "failed", time.Millisecond)
	jobs.AddPurged("session-pantry-sweep", 3)
	jobs.AddPurged("session-pantry-sweep", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "pantry_job_runs_total", map[string]string{"job": "session-pantry-sweep", "outcome": "failed"}); err != nil || got != 1 {
		t.Fatalf("expected failed=1, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "pantry_job_purged_items_total", map[string]string{"job": "session-pantry-sweep"}); err != nil || got != 3 {
		t.Fatalf("expected purged=3, got %f err=%v", got, err)
	}

	var nilJobs *JobMetrics
	nilJobs.ObserveRun("x", "ok", time.Second)
	NewJobMetrics(nil).AddPurged("x", 1)
}

func TestRecipeAndHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	recipes := NewRecipeMetrics(reg)
	httpm := NewHTTPMetrics(reg)

	recipes.Inc("cached")
	recipes.ObserveGeneration(time.Second)
	httpm.Observe("GET", "/api/v1/pantry/items", 200, 5*time.Millisecond)
	httpm.Observe("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "recipe_requests_total", map[string]string{"result": "cached"}); err != nil || got != 1 {
		t.Fatalf("expected cached=1, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", map[string]string{"route": "/api/v1/pantry/items", "status": "200"}); err != nil || got != 1 {
		t.Fatalf("expected pantry route count 1, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", map[string]string{"route": "unknown", "status": "404"}); err != nil || got != 1 {
		t.Fatalf("expected unknown route count 1, got %f err=%v", got, err)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewPantryMetrics(nil).Observe("list", "ok", time.Millisecond)
	NewRecipeMetrics(nil).Inc("failed")
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
	var p *PantryMetrics
	p.IncConflict("edit")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
