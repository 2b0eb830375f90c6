package cache

import (
	"context"
	"time"

	"github.com/RishiKendai/shingle/internal/plagiarism"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultLRUSize = 256
	defaultLRUTTL  = 10 * time.Minute
)

type lruEntry struct {
	result   *plagiarism.Result
	storedAt time.Time
}

// LRUCache is an in-process cache with a per-entry TTL.
type LRUCache struct {
	cache *lru.Cache[string, lruEntry]
	ttl   time.Duration
	now   func() time.Time
}

// NewLRUCache returns a cache of at most size entries. Non-positive values
// fall back to defaults.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = defaultLRUSize
	}
	if ttl <= 0 {
		ttl = defaultLRUTTL
	}
	// lru.New only errors on non-positive size which we guard above.
	c, _ := lru.New[string, lruEntry](size)
	return &LRUCache{cache: c, ttl: ttl, now: time.Now}
}

func (c *LRUCache) Get(_ context.Context, key string) (*plagiarism.Result, bool) {
	entry, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.cache.Remove(key)
		return nil, false
	}
	return entry.result, true
}

func (c *LRUCache) Set(_ context.Context, key string, result *plagiarism.Result) {
	if result == nil {
		return
	}
	c.cache.Add(key, lruEntry{result: result, storedAt: c.now()})
}

// Len returns the number of cached entries, including expired ones not yet evicted.
func (c *LRUCache) Len() int {
	return c.cache.Len()
}
