package pantry

import (
	"testing"

	"github.com/google/uuid"
)

func TestScopeCollection(t *testing.T) {
	userID := uuid.MustParse("7d0b2c1e-3f4a-4b5c-8d6e-9f0a1b2c3d4e")

	if got := GlobalScope().Collection(); got != "global" {
		t.Fatalf("global collection = %q", got)
	}
	if got := SessionScope("tok").Collection(); got != "session:tok" {
		t.Fatalf("session collection = %q", got)
	}
	if got := IdentityScope(userID).Collection(); got != "user:"+userID.String() {
		t.Fatalf("identity collection = %q", got)
	}
}

func TestScopeValidate(t *testing.T) {
	valid := []Scope{GlobalScope(), SessionScope("tok"), IdentityScope(uuid.New())}
	for _, s := range valid {
		if err := s.Validate(); err != nil {
			t.Fatalf("expected %+v to be valid: %v", s, err)
		}
	}

	invalid := []Scope{
		{Kind: KindGlobal, Key: "x"},
		{Kind: KindSession},
		{Kind: KindIdentity, Key: "not-a-uuid"},
		{Kind: KindIdentity, Key: uuid.Nil.String()},
		{Kind: "team", Key: "x"},
	}
	for _, s := range invalid {
		if err := s.Validate(); err == nil {
			t.Fatalf("expected %+v to be rejected", s)
		}
	}
}

func TestParseScopeRoundTrip(t *testing.T) {
	for _, s := range []Scope{GlobalScope(), SessionScope("abc"), IdentityScope(uuid.New())} {
		got, err := ParseScope(s.Collection())
		if err != nil {
			t.Fatalf("parse %q: %v", s.Collection(), err)
		}
		if got != s {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, s)
		}
	}
	if _, err := ParseScope("team:1"); err == nil {
		t.Fatal("expected unknown prefix to fail")
	}
	if _, err := ParseScope("nonsense"); err == nil {
		t.Fatal("expected missing prefix to fail")
	}
}
