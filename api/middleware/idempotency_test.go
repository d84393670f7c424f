package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/pantrypal-backend/internal/pantry"
	pkgerrors "github.com/angelmondragon/pantrypal-backend/pkg/errors"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
	dels int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	str, _ := value.(string)
	f.data[key] = str
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	f.dels++
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func postRequest(url, body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
}

func TestIdempotencyMiddlewareOptionalKeyPassesThrough(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(IdempotencyOptions{TTL: time.Hour}, store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		req := postRequest("/api/v1/pantry/items", `{"name":"eggs"}`)
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d", resp.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected both requests to reach the handler, got %d", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected nothing stored without a key, got %d records", len(store.data))
	}
}

func TestIdempotencyMiddlewareKeysByPantryScope(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(IdempotencyOptions{TTL: time.Hour}, store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	for _, token := range []string{"tok-a", "tok-b"} {
		req := postRequest("/api/v1/pantry/items", `{"name":"eggs"}`)
		req = req.WithContext(WithScope(req.Context(), pantry.SessionScope(token)))
		req.Header.Set("Idempotency-Key", "same")
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected distinct scopes to execute separately, got %d calls", calls)
	}
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(IdempotencyOptions{Required: true}, store, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := postRequest("/api/v1/auth/register", `{"foo":"bar"}`)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(IdempotencyOptions{Required: true}, store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := postRequest("/api/v1/auth/register", `{"foo":"bar"}`)
	req.Header.Set("Idempotency-Key", "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected first response 202 got %d", resp.Code)
	}

	replay := postRequest("/api/v1/auth/register", `{"foo":"bar"}`)
	replay.Header.Set("Idempotency-Key", "abc")
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, replay)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected replay status 202 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(IdempotencyOptions{Required: true}, store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := postRequest("/api/v1/auth/register", `{"foo":"bar"}`)
	req.Header.Set("Idempotency-Key", "xyz")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	replay := postRequest("/api/v1/auth/register", `{"foo":"diff"}`)
	replay.Header.Set("Idempotency-Key", "xyz")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, replay)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}

func TestIdempotencyMiddlewareSkipsServerErrors(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(IdempotencyOptions{}, store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		req := postRequest("/api/v1/pantry/items", `{"name":"rice"}`)
		req.Header.Set("Idempotency-Key", "retry-me")
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected a 503 to be retried, handler ran %d times", calls)
	}

	req := postRequest("/api/v1/pantry/items", `{"name":"rice"}`)
	req.Header.Set("Idempotency-Key", "retry-me")
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, req)
	if calls != 2 || rec.Code != http.StatusCreated {
		t.Fatalf("expected the 201 to be replayed, calls=%d code=%d", calls, rec.Code)
	}
	if rec.Header().Get(replayedHeader) != "true" {
		t.Fatal("expected replay marker header")
	}
}

func TestIdempotencyMiddlewareHashesScopeIntoKey(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(IdempotencyOptions{}, store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	req := postRequest("/api/v1/pantry/items", `{}`)
	req = req.WithContext(WithScope(req.Context(), pantry.SessionScope("secret-token")))
	req.Header.Set("Idempotency-Key", "k1")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	if len(store.data) != 1 {
		t.Fatalf("expected one record, got %d", len(store.data))
	}
	for key := range store.data {
		if strings.Contains(key, "secret-token") {
			t.Fatalf("session token leaked into key %q", key)
		}
	}
}

func TestIdempotencyMiddlewareRejectsLongKey(t *testing.T) {
	mw := Idempotency(IdempotencyOptions{}, newFakeStore(), nil)
	req := postRequest("/api/v1/pantry/items", `{}`)
	req.Header.Set("Idempotency-Key", strings.Repeat("k", maxIdempotencyKey+1))
	rec := httptest.NewRecorder()
	mw(http.NotFoundHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIdempotencyMiddlewareRejectsConcurrentDuplicate(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(IdempotencyOptions{TTL: time.Hour}, store, nil)
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		close(entered)
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	})

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		req := postRequest("/api/v1/pantry/items", `{"name":"flour"}`)
		req.Header.Set("Idempotency-Key", "dup")
		mw(handler).ServeHTTP(first, req)
	}()
	<-entered

	req := postRequest("/api/v1/pantry/items", `{"name":"flour"}`)
	req.Header.Set("Idempotency-Key", "dup")
	dup := httptest.NewRecorder()
	mw(handler).ServeHTTP(dup, req)
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected 409 while the first request runs, got %d", dup.Code)
	}

	close(release)
	<-done
	if first.Code != http.StatusCreated {
		t.Fatalf("expected first request 201, got %d", first.Code)
	}

	req = postRequest("/api/v1/pantry/items", `{"name":"flour"}`)
	req.Header.Set("Idempotency-Key", "dup")
	again := httptest.NewRecorder()
	mw(handler).ServeHTTP(again, req)
	if again.Code != http.StatusCreated || strings.TrimSpace(again.Body.String()) != `{"id":"1"}` {
		t.Fatalf("expected stored 201 replay, got %d %s", again.Code, again.Body.String())
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("handler executed %d times, expected 1", got)
	}
}

func TestIdempotencyMiddlewareReleasesClaimOnServerError(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(IdempotencyOptions{}, store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	req := postRequest("/api/v1/pantry/items", `{"name":"salt"}`)
	req.Header.Set("Idempotency-Key", "boom")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	if store.dels != 1 {
		t.Fatalf("expected the claim to be released once, got %d deletes", store.dels)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected no record after a server error, got %d", len(store.data))
	}
}

func TestIdempotencyMiddlewareReleasesClaimOnPanic(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(IdempotencyOptions{}, store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})
	req := postRequest("/api/v1/pantry/items", `{"name":"salt"}`)
	req.Header.Set("Idempotency-Key", "panic")

	func() {
		defer func() { _ = recover() }()
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}()
	if len(store.data) != 0 {
		t.Fatalf("expected the claim to be released after a panic, got %d records", len(store.data))
	}
}
