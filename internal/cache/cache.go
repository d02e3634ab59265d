package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Cache is an in-memory TTL cache with prefix-based bulk invalidation.
// Values are opaque copies of authoritative data; a miss or stale entry is a
// performance event, never a correctness one. Callers making reward-affecting
// decisions must re-validate against the store.
type Cache struct {
	mu         sync.RWMutex
	name       string
	defaultTTL time.Duration
	entries    map[string]*entry
	hits       atomic.Int64
	misses     atomic.Int64
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Name       string `json:"name"`
	EntryCount int    `json:"entry_count"`
	Hits       int64  `json:"hits"`
	Misses     int64  `json:"misses"`
}

// New creates a cache with the given name and default TTL.
func New(name string, defaultTTL time.Duration) *Cache {
	return &Cache{
		name:       name,
		defaultTTL: defaultTTL,
		entries:    make(map[string]*entry),
	}
}

// Get returns the value for key, or (nil, false) if the key is missing or
// expired. Expired entries are purged lazily on access.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	now := time.Now()
	if ok && now.Before(e.expiresAt) {
		c.hits.Add(1)
		return e.value, true
	}

	c.misses.Add(1)
	if ok {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, still := c.entries[key]; still && !now.Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}
	return nil, false
}

// Set stores value under key. A zero or negative ttl uses the tier default.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Invalidate removes a single key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateByPrefix removes every entry whose key starts with prefix and
// returns the number of entries removed. Callers only need to share the key
// prefix convention (e.g. "quests_<userID>"), not enumerate concrete keys.
func (c *Cache) InvalidateByPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Purge removes expired entries eagerly. Called by the janitor; exact purge
// timing is not observable through Get.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Name:       c.name,
		EntryCount: len(c.entries),
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
	}
}
