package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 2 * time.Hour

// Lock keeps two workers from sweeping the same cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lease. The TTL bounds how long a crashed worker can
// hold it; Release only deletes a lease this instance still owns.
type RedisLock struct {
	store  lockStore
	key    string
	ttl    time.Duration
	holder string

	mu    sync.Mutex
	owned string
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	switch {
	case store == nil:
		return nil, errors.New("redis client required for lock")
	case key == "":
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

// WithHolder names the process in the stored lease value, e.g. "worker-3/<uuid>".
func (l *RedisLock) WithHolder(holder string) *RedisLock {
	l.holder = holder
	return l
}

func (l *RedisLock) leaseValue() string {
	if l.holder == "" {
		return uuid.NewString()
	}
	return l.holder + "/" + uuid.NewString()
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	lease := l.leaseValue()
	ok, err := l.store.SetNX(ctx, l.key, lease, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if ok {
		l.mu.Lock()
		l.owned = lease
		l.mu.Unlock()
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owned == "" {
		return nil
	}

	current, err := l.store.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		// Lease expired on its own.
		l.owned = ""
		return nil
	case err != nil:
		return fmt.Errorf("read lease %s: %w", l.key, err)
	case current != l.owned:
		l.owned = ""
		return nil
	}

	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	l.owned = ""
	return nil
}
