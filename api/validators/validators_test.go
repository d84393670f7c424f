package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/pantrypal-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type itemBody struct {
	Name       string `json:"name" validate:"required,max=10"`
	Expiration string `json:"expiration" validate:"isodate"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"eggs","expiration":"2025-07-15"}`))
	var body itemBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Name != "eggs" || body.Expiration != "2025-07-15" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecodeJSONBodyValidation(t *testing.T) {
	cases := map[string]string{
		"unknown field":  `{"name":"eggs","color":"white"}`,
		"malformed":      `{"name":`,
		"missing name":   `{"expiration":"2025-07-15"}`,
		"bad expiration": `{"name":"eggs","expiration":"tomorrow"}`,
		"long name":      `{"name":"a very long pantry name"}`,
	}
	for name, payload := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		var body itemBody
		err := DecodeJSONBody(req, &body)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestValidationDetailsUseJSONNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"eggs","expiration":"07/15/2025"}`))
	var body itemBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %#v", typed.Details())
	}
	if details["expiration"] != "must be a YYYY-MM-DD date" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestURLParamUUID(t *testing.T) {
	id := uuid.New()
	if got, err := URLParamUUID(withParam("itemId", id.String()), "itemId"); err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}
	if _, err := URLParamUUID(withParam("itemId", "eggs"), "itemId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := URLParamUUID(withParam("itemId", ""), "itemId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty param, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  eggs  ", 0); got != "eggs" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("crème fraîche", 5); got != "crème" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
}

func withParam(key, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}
