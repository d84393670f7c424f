package instance

import "testing"

func TestIDPrefersEnvironment(t *testing.T) {
	t.Setenv("PANTRYPAL_WORKER_ID", "sweeper-3")
	if got := ID(); got != "sweeper-3" {
		t.Fatalf("expected sweeper-3, got %q", got)
	}
}

func TestIDFallsBack(t *testing.T) {
	t.Setenv("PANTRYPAL_WORKER_ID", "")
	t.Setenv("WORKER_ID", "")
	if got := ID(); got == "" {
		t.Fatal("expected a non-empty fallback id")
	}
}
