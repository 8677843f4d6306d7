// Package memory implements the fetch cache in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/JakeFAU/productscraper/internal/clock"
	"github.com/JakeFAU/productscraper/internal/crawler"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Cache stores page bodies with a per-entry expiry. Expired entries are
// dropped lazily on read.
type Cache struct {
	mu      sync.RWMutex
	clock   crawler.Clock
	entries map[string]entry
}

var _ crawler.Cache = (*Cache)(nil)

// New creates an empty cache. A nil clock uses the system clock.
func New(c crawler.Clock) *Cache {
	if c == nil {
		c = clock.NewSystem()
	}
	return &Cache{
		clock:   c,
		entries: make(map[string]entry),
	}
}

// Get returns a copy of the stored value when present and unexpired.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set stores a copy of value for ttl. A non-positive ttl removes the key.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl <= 0 {
		delete(c.entries, key)
		return nil
	}
	c.entries[key] = entry{
		value:     append([]byte(nil), value...),
		expiresAt: c.clock.Now().Add(ttl),
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
