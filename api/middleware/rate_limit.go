package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/pantrypal-backend/api/responses"
	pkgerrors "github.com/angelmondragon/pantrypal-backend/pkg/errors"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
)

const maxRateLimitPeek = 16 << 10

type rateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// LimitBy names the request attribute a counter is keyed on.
type LimitBy string

const (
	LimitByIP     LimitBy = "ip"
	LimitByEmail  LimitBy = "email"
	LimitByPantry LimitBy = "pantry"
)

// RateLimitRule caps requests per window for one attribute.
type RateLimitRule struct {
	By    LimitBy
	Limit int
}

// RateLimitPolicy groups the rules sharing one window under a name.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	rules  []RateLimitRule
}

// NewRateLimitPolicy drops rules with a non-positive limit.
func NewRateLimitPolicy(name string, window time.Duration, rules ...RateLimitRule) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "default"
	}
	policy := RateLimitPolicy{name: name, window: window}
	for _, rule := range rules {
		if rule.Limit > 0 {
			policy.rules = append(policy.rules, rule)
		}
	}
	return policy
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && len(p.rules) > 0
}

// RateLimit rejects requests once any rule's counter passes its limit within the window.
// Attributes that cannot be derived from the request are not counted.
func RateLimit(policy RateLimitPolicy, store rateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			for _, rule := range policy.rules {
				value, err := limitValue(r, rule.By)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				if value == "" {
					continue
				}
				scope := fmt.Sprintf("%s:%s:%s", policy.name, rule.By, value)
				allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(rule.Limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":   policy.name,
							"limit_by": string(rule.By),
							"attempts": count,
							"limit":    rule.Limit,
						}), "rate_limit.blocked")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limitValue returns the counter identity for by. Emails and pantry
// collections are hashed so neither addresses nor session tokens reach Redis keys.
func limitValue(r *http.Request, by LimitBy) (string, error) {
	switch by {
	case LimitByIP:
		return clientIP(r), nil
	case LimitByEmail:
		email, err := peekEmail(r)
		if err != nil || email == "" {
			return "", err
		}
		return hashValue(email), nil
	case LimitByPantry:
		scope, ok := ScopeFromContext(r.Context())
		if !ok {
			return "", nil
		}
		return hashValue(scope.Collection()), nil
	}
	return "", nil
}

// peekEmail reads the JSON email field and restores the body for the handler.
func peekEmail(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRateLimitPeek))
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return "", nil
	}
	return strings.ToLower(strings.TrimSpace(payload.Email)), nil
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		first, _, _ := strings.Cut(header, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:16])
}
