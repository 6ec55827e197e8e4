package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ppiankov/foodlens/internal/model"
)

const keyPrefix = "foodlens:v1:"

// Cache stores raw product lookup responses
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// CacheKey generates a cache key from a request URL
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// New builds the cache backend selected in cfg. It returns nil when caching is disabled.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case "", "layered":
		return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL), nil
	case "memory":
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute), nil
	case "disk":
		return NewDiskCache(cfg.Dir, cfg.DiskTTL), nil
	case "redis":
		rc, err := NewRedisCache(cfg.RedisURL, cfg.DiskTTL)
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
