package memcache

import (
	"context"
	"sync"
	"time"
)

// Cache is an in-memory implementation of cache.Cache for tests and
// short-lived processes.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	payload   []byte
	createdAt time.Time
}

// New creates an empty in-memory cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Close implements cache.Cache.
func (c *Cache) Close() error { return nil }

// Get implements cache.Cache.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	payload := make([]byte, len(e.payload))
	copy(payload, e.payload)
	return payload, true, nil
}

// Put implements cache.Cache.
func (c *Cache) Put(ctx context.Context, key string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]byte, len(payload))
	copy(stored, payload)
	c.entries[key] = entry{payload: stored, createdAt: time.Now().UTC()}
	return nil
}

// Prune implements cache.Cache.
func (c *Cache) Prune(ctx context.Context, before time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int64
	for key, e := range c.entries {
		if e.createdAt.Before(before) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
