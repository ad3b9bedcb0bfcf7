package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tradeflow/backend/internal/domain"
)

// cacheItem represents a single entry in the cache with expiration
type cacheItem struct {
	entry      domain.CacheEntry
	expiration time.Time
}

// MemoryCache is a thread-safe in-memory search cache with TTL support
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Option configures a MemoryCache
type Option func(*MemoryCache)

// WithClock replaces time.Now, used by tests to move past a TTL
func WithClock(now func() time.Time) Option {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// NewMemoryCache creates a new in-memory cache. Expired entries are swept
// every cleanupInterval until Close is called; a non-positive interval
// disables the sweeper.
func NewMemoryCache(cleanupInterval time.Duration, opts ...Option) *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
		now:  time.Now,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cache)
	}

	if cleanupInterval > 0 {
		go cache.cleanupExpired(cleanupInterval)
	} else {
		close(cache.done)
	}

	return cache
}

// Get retrieves a deep copy of an unexpired entry
func (c *MemoryCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	if !c.now().Before(item.expiration) {
		return nil, domain.ErrCacheMiss
	}

	return &domain.CacheEntry{
		Results:   domain.CloneResults(item.entry.Results),
		Timestamp: item.entry.Timestamp,
	}, nil
}

// Set stores an entry in the cache with TTL.
// Results are deep-copied on the way in and out, so neither the caller's
// slice nor values reached through its pointer fields are shared.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *domain.CacheEntry, ttl time.Duration) error {
	if entry == nil {
		return domain.ErrInvalidRequest
	}

	stored := domain.CacheEntry{
		Results:   domain.CloneResults(entry.Results),
		Timestamp: entry.Timestamp,
	}
	if stored.Results == nil {
		stored.Results = []domain.ProductResult{}
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		entry:      stored,
		expiration: c.now().Add(ttl),
	}

	return nil
}

// Delete removes an entry from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Clear removes all entries from the cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
	return nil
}

// Size returns the current number of entries, expired ones included until swept
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Close stops the cleanup goroutine and waits for it to exit
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCache) sweep() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, item := range c.data {
		if !now.Before(item.expiration) {
			delete(c.data, key)
		}
	}
}
