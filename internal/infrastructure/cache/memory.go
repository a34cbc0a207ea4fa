package cache

import (
	"context"
	"sync"
	"time"

	"github.com/harudiet/backend/internal/domain"
)

// DefaultCleanupInterval is how often expired entries are swept
const DefaultCleanupInterval = 10 * time.Minute

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	Value      interface{}
	Expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return now.After(i.Expiration)
}

// MemoryCache is a thread-safe in-memory cache with TTL support.
// Values are stored as given; callers must not mutate a value after Set.
type MemoryCache struct {
	data      map[string]cacheItem
	mutex     sync.RWMutex
	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache swept every DefaultCleanupInterval
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithInterval(DefaultCleanupInterval)
}

// NewMemoryCacheWithInterval creates a new in-memory cache swept every interval
func NewMemoryCacheWithInterval(interval time.Duration) *MemoryCache {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
		stop: make(chan struct{}),
	}

	go cache.cleanupExpired(interval)

	return cache
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || item.expired(time.Now()) {
		return nil, domain.ErrCacheMiss
	}

	return item.Value, nil
}

// Set stores a value in the cache with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		Value:      value,
		Expiration: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return false, nil
	}
	return !item.expired(time.Now()), nil
}

// Close stops the cleanup goroutine. The cache stays usable.
func (c *MemoryCache) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep(time.Now())
		}
	}
}

func (c *MemoryCache) sweep(now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key, item := range c.data {
		if item.expired(now) {
			delete(c.data, key)
		}
	}
}

// Size returns the current number of items in the cache, expired ones included
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}
