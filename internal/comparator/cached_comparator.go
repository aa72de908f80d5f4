package comparator

import (
	"crypto/md5"
	"fmt"
	"sync"
)

// CachedComparator wraps a Comparator with LRU caching so repeated
// comparisons of the same (baseline, current) pair — e.g. re-rendering a
// report — don't redo the reduction.
type CachedComparator struct {
	comparator Comparator
	cache      *LRUCache
}

// NewCachedComparator creates a cached comparator with the given cache
// size (0 or negative uses a default of 100 entries).
func NewCachedComparator(comparator Comparator, cacheSize int) *CachedComparator {
	if cacheSize <= 0 {
		cacheSize = 100
	}
	return &CachedComparator{
		comparator: comparator,
		cache:      NewLRUCache(cacheSize),
	}
}

// Compare implements Comparator with caching.
func (cc *CachedComparator) Compare(baseline, current []Point) *ComparisonResult {
	key := cc.cacheKey(baseline, current)

	if result, found := cc.cache.Get(key); found {
		return result
	}

	result := cc.comparator.Compare(baseline, current)
	cc.cache.Set(key, result)
	return result
}

// ClearCache removes all cached entries.
func (cc *CachedComparator) ClearCache() {
	cc.cache.Clear()
}

// CacheStats returns the current and maximum cache sizes.
func (cc *CachedComparator) CacheStats() (size, maxSize int) {
	return cc.cache.Size(), cc.cache.MaxSize()
}

func (cc *CachedComparator) cacheKey(baseline, current []Point) string {
	h := md5.New()
	for _, p := range baseline {
		fmt.Fprintf(h, "b:%s:%s:%f;", p.Name, p.Lang, p.NanosPerOp)
	}
	for _, p := range current {
		fmt.Fprintf(h, "c:%s:%s:%f;", p.Name, p.Lang, p.NanosPerOp)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// LRUCache is a small fixed-capacity LRU cache of ComparisonResults,
// keyed by an opaque string.
type LRUCache struct {
	maxSize int
	items   map[string]*ComparisonResult
	order   []string
	mu      sync.RWMutex
}

// NewLRUCache creates an LRU cache with the given capacity.
func NewLRUCache(maxSize int) *LRUCache {
	return &LRUCache{
		maxSize: maxSize,
		items:   make(map[string]*ComparisonResult),
		order:   make([]string, 0, maxSize),
	}
}

// Get retrieves a cached result.
func (lru *LRUCache) Get(key string) (*ComparisonResult, bool) {
	lru.mu.RLock()
	defer lru.mu.RUnlock()
	result, found := lru.items[key]
	return result, found
}

// Set stores a result, evicting the oldest entry if the cache is full.
func (lru *LRUCache) Set(key string, result *ComparisonResult) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	if _, found := lru.items[key]; found {
		lru.items[key] = result
		return
	}
	if len(lru.items) >= lru.maxSize {
		lru.evictOldest()
	}
	lru.items[key] = result
	lru.order = append(lru.order, key)
}

func (lru *LRUCache) evictOldest() {
	if len(lru.order) == 0 {
		return
	}
	oldest := lru.order[0]
	delete(lru.items, oldest)
	lru.order = lru.order[1:]
}

// Clear removes all cached entries.
func (lru *LRUCache) Clear() {
	lru.mu.Lock()
	defer lru.mu.Unlock()
	lru.items = make(map[string]*ComparisonResult)
	lru.order = lru.order[:0]
}

// Size returns the current number of cached entries.
func (lru *LRUCache) Size() int {
	lru.mu.RLock()
	defer lru.mu.RUnlock()
	return len(lru.items)
}

// MaxSize returns the cache's capacity.
func (lru *LRUCache) MaxSize() int {
	return lru.maxSize
}
