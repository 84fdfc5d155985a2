package engine

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultCacheTTL matches how long a fetched page is considered fresh.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	payload any
	expires time.Time
}

// PageCache is a small TTL cache for fetched pages, keyed by the full
// request path and query so every distinct filter/sort/page combination
// caches independently.
type PageCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uint64]cacheEntry
}

// NewPageCache creates a cache with the given freshness window.
func NewPageCache(ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &PageCache{
		ttl:     ttl,
		entries: make(map[uint64]cacheEntry),
	}
}

// CacheKey hashes a request path and encoded query into a cache key.
func CacheKey(path, rawQuery string) uint64 {
	return xxhash.Sum64String(path + "?" + rawQuery)
}

// Get returns a still-fresh payload for key.
func (pc *PageCache) Get(key uint64) (any, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	entry, ok := pc.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(pc.entries, key)
		return nil, false
	}
	return entry.payload, true
}

// Put stores a payload for key.
func (pc *PageCache) Put(key uint64, payload any) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.entries[key] = cacheEntry{payload: payload, expires: time.Now().Add(pc.ttl)}
}

// Clear drops everything. Called when the session ends so a new login
// never sees another user's pages.
func (pc *PageCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.entries = make(map[uint64]cacheEntry)
}

// Size returns the current number of cached pages.
func (pc *PageCache) Size() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return len(pc.entries)
}
