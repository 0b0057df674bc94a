// Package cache stores rendered presentation data, in memory or in Redis.
package cache

import (
	"context"
	"time"

	"github.com/studentaffairs/portal/internal/config"
)

// Cache is implemented by MemoryCache and RedisCache. All implementations
// are safe for concurrent use.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; a zero ttl uses the default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeleteByPrefix removes every key starting with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrCacheMiss   Error = "cache miss"
	ErrCacheClosed Error = "cache closed"
)

// New picks Redis when a URL is configured, otherwise an in-process cache.
func New(cfg config.CacheConfig) (Cache, error) {
	if cfg.RedisURL == "" {
		return NewMemoryCache(cfg.TTL), nil
	}
	return NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.TTL)
}
