package loader

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long successful responses are reused.
const DefaultCacheTTL = 5 * time.Minute

// Cache stores fetched responses.
type Cache interface {
	Get(key string) (*Response, bool)
	Set(key string, resp *Response, ttl time.Duration)
}

type cacheEntry struct {
	resp      *Response
	expiresAt time.Time
}

// MemoryCache is an in-process Cache with per-entry expiry.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns an unexpired entry.
func (c *MemoryCache) Get(key string) (*Response, bool) {
	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()

	if !found || !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	return entry.resp, true
}

// Set stores resp for ttl.
func (c *MemoryCache) Set(key string, resp *Response, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		resp:      resp,
		expiresAt: c.now().Add(ttl),
	}
}

// Flush clears all entries.
func (c *MemoryCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// CachingFetcher serves successful responses from a Cache and collapses
// concurrent fetches of the same resource into one request.
type CachingFetcher struct {
	next  Fetcher
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewCachingFetcher wraps next. A nil cache gets a fresh MemoryCache and a
// non-positive ttl becomes DefaultCacheTTL.
func NewCachingFetcher(next Fetcher, cache Cache, ttl time.Duration) *CachingFetcher {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingFetcher{next: next, cache: cache, ttl: ttl}
}

// Fetch implements Fetcher.
func (f *CachingFetcher) Fetch(ctx context.Context, url string, accept string) (*Response, error) {
	key := accept + " " + url

	// 1. Check Cache
	if resp, ok := f.cache.Get(key); ok {
		hit := *resp
		hit.FromCache = true
		return &hit, nil
	}

	// 2. Fetch, one request per key in flight
	v, err, _ := f.group.Do(key, func() (any, error) {
		resp, err := f.next.Fetch(ctx, url, accept)
		if err != nil {
			return nil, err
		}
		// 3. Update Cache
		if resp.OK() {
			f.cache.Set(key, resp, f.ttl)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp := *v.(*Response)
	return &resp, nil
}
