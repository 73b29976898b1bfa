// Package cache implements the content-addressed response cache. Entries
// carry a per-entry TTL and are evicted lazily on lookup; the store never
// shares mutable state with callers.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/scanforge/aicore/pkg/types"
)

const (
	// DefaultTTL matches the engine default of one hour.
	DefaultTTL = time.Hour

	// DefaultMaxEntries bounds the cache size.
	DefaultMaxEntries = 1000
)

type entry struct {
	result     *types.TaskResult
	insertedAt time.Time
	ttl        time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

// ResponseCache is a TTL-bounded in-memory store of task results, shared
// across all dispatch paths. All map access is guarded by a single RWMutex;
// hit/miss/set counters use atomics so Stats never blocks writers.
type ResponseCache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	maxEntries int
	defaultTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64

	// now is replaceable in tests to simulate TTL expiry.
	now func() time.Time
}

// Config holds cache construction parameters.
type Config struct {
	MaxEntries int
	DefaultTTL time.Duration
}

// New creates a response cache, applying defaults for unset fields.
func New(cfg Config) *ResponseCache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	return &ResponseCache{
		entries:    make(map[string]*entry),
		maxEntries: cfg.MaxEntries,
		defaultTTL: cfg.DefaultTTL,
		now:        time.Now,
	}
}

// Get returns a deep copy of the cached result for key, or nil on a miss.
// An entry older than its TTL is removed and reported as a miss.
func (c *ResponseCache) Get(key string) *types.TaskResult {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil
	}

	if e.expired(c.now()) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// replaced the entry with a fresh one.
		if cur, ok := c.entries[key]; ok && cur.expired(c.now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return nil
	}

	c.hits.Add(1)
	return e.result.Clone()
}

// Set stores a deep copy of the result under key. A non-positive ttl falls
// back to the default. At capacity, the oldest entry is evicted first.
func (c *ResponseCache) Set(key string, result *types.TaskResult, ttl time.Duration) {
	if result == nil {
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}

	c.entries[key] = &entry{
		result:     result.Clone(),
		insertedAt: c.now(),
		ttl:        ttl,
	}
	c.sets.Add(1)
}

// evictOldestLocked removes expired entries, then the oldest live entry if
// still at capacity. Caller holds the write lock.
func (c *ResponseCache) evictOldestLocked() {
	now := c.now()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.insertedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.insertedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Invalidate removes a single entry.
func (c *ResponseCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Len returns the number of stored entries, including not-yet-collected
// expired ones.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats holds cache statistics for monitoring.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Entries int     `json:"entries"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns a consistent snapshot of the cache counters.
func (c *ResponseCache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Entries: c.Len(),
		HitRate: hitRate,
	}
}
