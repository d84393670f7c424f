package recipes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

// Cache stores generated recipes keyed by item-set digest.
type Cache interface {
	Get(ctx context.Context, digest string) (string, bool, error)
	Set(ctx context.Context, digest, recipe string, ttl time.Duration) error
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	RecipeCacheKey(digest string) string
}

// RedisCache keeps recipes in redis under pp:recipe:<digest>.
type RedisCache struct {
	store redisStore
}

func NewRedisCache(store redisStore) *RedisCache {
	return &RedisCache{store: store}
}

func (c *RedisCache) Get(ctx context.Context, digest string) (string, bool, error) {
	val, err := c.store.Get(ctx, c.store.RecipeCacheKey(digest))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, digest, recipe string, ttl time.Duration) error {
	return c.store.Set(ctx, c.store.RecipeCacheKey(digest), recipe, ttl)
}

// Digest identifies an item set independent of order and case.
func Digest(items []string) string {
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, strings.ToLower(strings.TrimSpace(item)))
	}
	sort.Strings(keys)
	sum := sha256.Sum256([]byte(strings.Join(keys, "\n")))
	return hex.EncodeToString(sum[:])
}
