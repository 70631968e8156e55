// Package cache provides the bounded memoization layer used to keep
// repeated deterministic computation cheap. A missing cache entry never
// changes a computed result, only its cost.
package cache

import (
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"

	"github.com/scrimshawlife-ctrl/abraxas/internal/canon"
)

type entry struct {
	value      any
	insertedAt time.Time
}

// Cache is a bounded key-value cache with least-recently-used eviction and
// optional time-based expiry. A Get on a hit refreshes recency; a Get on an
// entry older than the TTL evicts it and reports a miss. Set on a full cache
// evicts exactly one entry, the least recently used.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, entry]
	ttl time.Duration
	now func() time.Time
}

// New creates a cache holding at most maxSize entries. A ttl of zero
// disables time-based expiry.
func New(maxSize int, ttl time.Duration) (*Cache, error) {
	l, err := lru.New[string, entry](maxSize)
	if err != nil {
		return nil, eris.Wrap(err, "cache: new")
	}
	return &Cache{lru: l, ttl: ttl, now: time.Now}, nil
}

// Get returns the value stored under key, if present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.insertedAt) > c.ttl {
		c.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, evicting the least-recently-used entry when
// the cache is full.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, entry{value: value, insertedAt: c.now()})
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len returns the number of entries currently held, including entries that
// have expired but have not yet been read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Key derives a deterministic cache key from an arbitrary value. Strings and
// integers map to themselves; everything else is serialized structurally so
// that two structurally equal keys collide to the same slot.
func Key(v any) (string, error) {
	switch k := v.(type) {
	case string:
		return k, nil
	case int:
		return strconv.Itoa(k), nil
	case int64:
		return strconv.FormatInt(k, 10), nil
	case float64:
		return strconv.FormatFloat(k, 'g', -1, 64), nil
	default:
		b, err := canon.Marshal(v)
		if err != nil {
			return "", eris.Wrap(err, "cache: derive key")
		}
		return string(b), nil
	}
}
