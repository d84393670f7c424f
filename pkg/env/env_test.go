package env

import "testing"

func TestGetPrefersPrefixedName(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("PANTRYPAL_LOG_FORMAT", " console ")
	if got := Get("LOG_FORMAT", "x"); got != "console" {
		t.Fatalf("expected prefixed value, got %q", got)
	}
}

func TestGetFallsBack(t *testing.T) {
	t.Setenv("PANTRYPAL_LOG_FORMAT", "")
	t.Setenv("LOG_FORMAT", "")
	if got := Get("LOG_FORMAT", "json"); got != "json" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("LOG_FORMAT", "console")
	if got := Get("LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("expected bare name, got %q", got)
	}
}
