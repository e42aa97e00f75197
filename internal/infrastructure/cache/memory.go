package cache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prebuiltcheck/backend/internal/domain"
)

// MemoryCache is a thread-safe in-memory cache with TTL support.
// Values are stored JSON encoded so reads behave like the redis backend.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new in-memory cache that purges expired entries every 10 minutes
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

// Get decodes the cached value for key into dest
func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, found := c.cache.Get(key)
	if !found {
		return domain.ErrCacheMiss
	}

	data, ok := val.([]byte)
	if !ok {
		return domain.ErrCacheMiss
	}

	return json.Unmarshal(data, dest)
}

// Set stores a value in the cache with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.cache.Set(key, data, ttl)
	return nil
}
