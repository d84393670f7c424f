package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/pantrypal-backend/pkg/config"
	redisclient "github.com/angelmondragon/pantrypal-backend/pkg/redis"
	"github.com/angelmondragon/pantrypal-backend/pkg/security"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const refreshTokenBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrAccessIDRequired    = errors.New("access id is required")
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager keeps one refresh token per signed-in session, keyed by the jti of
// the access token issued alongside it. Logging out or refreshing deletes the
// key, which also invalidates the access token at the middleware.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	refreshTTL := cfg.RefreshTokenTTL()
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	switch {
	case refreshTTL <= 0:
		return nil, errors.New("refresh token ttl must be positive")
	case refreshTTL <= accessTTL:
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", refreshTTL, accessTTL)
	}
	return &Manager{store: client, keyer: client, ttl: refreshTTL}, nil
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", ErrAccessIDRequired
	}
	return m.keyer.AccessSessionKey(accessID), nil
}

// Generate mints a refresh token bound to accessID.
func (m *Manager) Generate(ctx context.Context, accessID string) (string, error) {
	key, err := m.key(accessID)
	if err != nil {
		return "", err
	}
	token, err := security.RandomToken(refreshTokenBytes)
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, key, token, m.ttl); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return token, nil
}

// Rotate exchanges a refresh token for a new access ID and refresh token. The
// presented token is single use.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, presented string) (newAccessID, newToken string, err error) {
	key, err := m.key(oldAccessID)
	if err != nil || strings.TrimSpace(presented) == "" {
		return "", "", ErrInvalidRefreshToken
	}

	stored, err := m.store.Get(ctx, key)
	switch {
	case errors.Is(err, redislib.Nil):
		return "", "", ErrInvalidRefreshToken
	case err != nil:
		return "", "", fmt.Errorf("load refresh token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newAccessID = NewAccessID()
	if newToken, err = m.Generate(ctx, newAccessID); err != nil {
		return "", "", err
	}
	if err := m.store.Del(ctx, key); err != nil {
		return "", "", fmt.Errorf("drop rotated refresh token: %w", err)
	}
	return newAccessID, newToken, nil
}

// Revoke ends the session behind accessID.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// HasSession reports whether accessID still has a live refresh token.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	key, err := m.key(accessID)
	if err != nil {
		return false, err
	}
	return m.store.Exists(ctx, key)
}

// NewAccessID produces the identifier used as the JWT jti and redis key.
func NewAccessID() string {
	return uuid.NewString()
}
