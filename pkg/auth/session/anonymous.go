package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/angelmondragon/pantrypal-backend/pkg/config"
	redisclient "github.com/angelmondragon/pantrypal-backend/pkg/redis"
	"github.com/angelmondragon/pantrypal-backend/pkg/security"
)

const pantryTokenBytes = 32

type anonymousStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
}

type anonymousKeyer interface {
	PantrySessionKey(token string) string
}

// Anonymous issues and tracks the opaque tokens that namespace session-scoped
// pantries. A token lives in Redis for the session TTL; once it expires the
// pantry it named is abandoned.
type Anonymous struct {
	store anonymousStore
	keyer anonymousKeyer
	ttl   time.Duration
}

// NewAnonymous constructs the anonymous session tracker.
func NewAnonymous(client *redisclient.Client, cfg config.PantryConfig) (*Anonymous, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("pantry session ttl must be positive")
	}
	return &Anonymous{store: client, keyer: client, ttl: cfg.SessionTTL}, nil
}

// Issue mints and persists a fresh pantry session token.
func (a *Anonymous) Issue(ctx context.Context) (string, error) {
	token, err := security.RandomToken(pantryTokenBytes)
	if err != nil {
		return "", err
	}
	if err := a.store.Set(ctx, a.keyer.PantrySessionKey(token), "1", a.ttl); err != nil {
		return "", fmt.Errorf("persist pantry session: %w", err)
	}
	return token, nil
}

// Touch extends a live token and reports whether it was still known.
func (a *Anonymous) Touch(ctx context.Context, token string) (bool, error) {
	if !wellFormed(token) {
		return false, nil
	}
	return a.store.Expire(ctx, a.keyer.PantrySessionKey(token), a.ttl)
}

// Alive reports whether token is still known without extending it.
func (a *Anonymous) Alive(ctx context.Context, token string) (bool, error) {
	if !wellFormed(token) {
		return false, nil
	}
	return a.store.Exists(ctx, a.keyer.PantrySessionKey(token))
}

// Resolve returns provided when it is still live, otherwise a newly issued
// token. issued reports whether the caller must hand a new token to the client.
func (a *Anonymous) Resolve(ctx context.Context, provided string) (token string, issued bool, err error) {
	if provided != "" {
		live, err := a.Touch(ctx, provided)
		if err != nil {
			return "", false, err
		}
		if live {
			return provided, false, nil
		}
	}
	token, err = a.Issue(ctx)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// TTL reports the session lifetime used for cookies.
func (a *Anonymous) TTL() time.Duration {
	return a.ttl
}

func wellFormed(token string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	return err == nil && len(raw) == pantryTokenBytes
}
