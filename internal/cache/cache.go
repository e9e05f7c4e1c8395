// file: internal/cache/cache.go
// version: 2.1.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-1e2f3a4b5c6d

package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a generic TTL cache safe for concurrent use. A cache created
// with a non-positive TTL stores nothing. Expired entries are swept on
// write, at most once per TTL.
type Cache[K comparable, V any] struct {
	mu        sync.RWMutex
	items     map[K]entry[V]
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// New creates a cache whose entries live for ttl.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]entry[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Enabled reports whether the cache retains entries.
func (c *Cache[K, V]) Enabled() bool {
	return c.ttl > 0
}

// Get retrieves a value if it exists and hasn't expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value for the cache TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	if !c.Enabled() {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Sub(c.lastSweep) >= c.ttl {
		c.sweepLocked(now)
		c.lastSweep = now
	}
	c.items[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

// GetOrLoad returns the cached value for key, calling load on a miss and
// caching its result. Errors are returned and not cached. The boolean
// reports a cache hit.
func (c *Cache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	v, err := load()
	if err != nil {
		return v, false, err
	}
	c.Set(key, v)
	return v, false, nil
}

// Len returns the number of stored entries, including expired ones not yet
// swept.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Sweep drops expired entries and returns how many were removed.
func (c *Cache[K, V]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(now)
}

func (c *Cache[K, V]) sweepLocked(now time.Time) int {
	removed := 0
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

// InvalidateAll removes all entries.
func (c *Cache[K, V]) InvalidateAll() {
	c.mu.Lock()
	c.items = make(map[K]entry[V])
	c.mu.Unlock()
}
