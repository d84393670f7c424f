package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/pantrypal-backend/api/responses"
	pkgerrors "github.com/angelmondragon/pantrypal-backend/pkg/errors"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/pantrypal-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	maxIdempotencyKey = 255

	defaultIdempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long an in-flight claim blocks retries when the
	// process dies before releasing it.
	pendingTTL = 2 * time.Minute
)

// IdempotencyOptions configures replay protection for one route.
type IdempotencyOptions struct {
	TTL time.Duration
	// Required rejects requests that carry no key.
	Required bool
}

type storedResponse struct {
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
	Pending     bool   `json:"pending,omitempty"`
}

// Idempotency replays the first response recorded for an Idempotency-Key
// within the caller's pantry scope. The key is claimed before the handler
// runs, so a concurrent duplicate gets a 409 instead of a second execution.
// Server errors and panics release the claim so the client can retry.
func Idempotency(opts IdempotencyOptions, store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	if opts.TTL <= 0 {
		opts.TTL = defaultIdempotencyTTL
	}
	claimTTL := min(pendingTTL, opts.TTL)
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			switch {
			case key == "" && !opts.Required:
				next.ServeHTTP(w, r)
				return
			case key == "":
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			case len(key) > maxIdempotencyKey:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := digest(body)
			redisKey := store.IdempotencyKey(callerScope(r), key)

			marker, err := json.Marshal(storedResponse{RequestHash: requestHash, Pending: true})
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency claim"))
				return
			}
			claimed, err := store.SetNX(ctx, redisKey, string(marker), claimTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				answerDuplicate(w, r, store, redisKey, requestHash, logg)
				return
			}

			// Detached so the claim is settled even when the client hangs up.
			settleCtx := context.WithoutCancel(ctx)
			settled := false
			defer func() {
				if settled {
					return
				}
				if err := store.Del(settleCtx, redisKey); err != nil && logg != nil {
					logg.Error(ctx, "idempotency.release_failed", err)
				}
			}()

			capture := &bodyCapture{statusRecorder: statusRecorder{ResponseWriter: w}}
			next.ServeHTTP(capture, r)

			status := capture.Status()
			if status >= http.StatusInternalServerError {
				return
			}
			record, err := json.Marshal(storedResponse{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
				RequestHash: requestHash,
			})
			if err == nil {
				err = store.Set(settleCtx, redisKey, string(record), opts.TTL)
			}
			if err != nil {
				if logg != nil {
					logg.Error(ctx, "idempotency.persist_failed", err)
				}
				return
			}
			settled = true
		})
	}
}

// answerDuplicate handles a request whose key is already claimed: it replays
// a finished response or reports the conflict.
func answerDuplicate(w http.ResponseWriter, r *http.Request, store pkgredis.IdempotencyStore, redisKey, requestHash string, logg *logger.Logger) {
	ctx := r.Context()
	raw, err := store.Get(ctx, redisKey)
	if errors.Is(err, redis.Nil) {
		// The claim was released between SetNX and Get.
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is still in progress"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}
	var prior storedResponse
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case prior.RequestHash != requestHash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case prior.Pending:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is still in progress"))
	default:
		replay(w, prior)
	}
}

// callerScope keys records by user and pantry collection. It is hashed so
// session tokens never appear in Redis keys.
func callerScope(r *http.Request) string {
	collection := ""
	if scope, ok := ScopeFromContext(r.Context()); ok {
		collection = scope.Collection()
	}
	return digest([]byte(strings.Join([]string{
		UserIDFromContext(r.Context()),
		collection,
		r.Method,
		r.URL.Path,
	}, "|")))
}

func replay(w http.ResponseWriter, prior storedResponse) {
	if prior.ContentType != "" {
		w.Header().Set("Content-Type", prior.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(prior.Status)
	if body, err := base64.StdEncoding.DecodeString(prior.Body); err == nil {
		_, _ = w.Write(body)
	}
}

func digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

type bodyCapture struct {
	statusRecorder
	body bytes.Buffer
}

func (c *bodyCapture) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.statusRecorder.Write(b)
}
