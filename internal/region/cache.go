package region

import (
	"sync"

	"github.com/couchcryptid/jobmap-region/internal/domain"
)

// CachedExtractor wraps an extractor with an in-memory LRU cache. Extraction
// is a pure function of its input, so unrecognized results are cached too.
type CachedExtractor struct {
	inner    Extractor
	cache    *lruCache[string, cachedResult]
	onLookup func(hit bool)
}

type cachedResult struct {
	region domain.RegionIdentity
	ok     bool
}

// CacheOption configures a CachedExtractor.
type CacheOption func(*CachedExtractor)

// WithLookupHook registers fn to be called after every lookup with whether
// the result came from the cache.
func WithLookupHook(fn func(hit bool)) CacheOption {
	return func(c *CachedExtractor) { c.onLookup = fn }
}

// NewCachedExtractor creates a cache decorator around an extractor.
func NewCachedExtractor(inner Extractor, maxEntries int, opts ...CacheOption) *CachedExtractor {
	c := &CachedExtractor{
		inner:    inner,
		cache:    newLRUCache[string, cachedResult](maxEntries),
		onLookup: func(bool) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedExtractor) Extract(raw string) (domain.RegionIdentity, bool) {
	if r, ok := c.cache.get(raw); ok {
		c.onLookup(true)
		return r.region, r.ok
	}
	region, ok := c.inner.Extract(raw)
	c.cache.put(raw, cachedResult{region: region, ok: ok})
	c.onLookup(false)
	return region, ok
}

// Len reports the number of cached entries.
func (c *CachedExtractor) Len() int {
	return c.cache.len()
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[K comparable, V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[K]*entry[K, V]
	head       *entry[K, V] // most recently used
	tail       *entry[K, V] // least recently used
}

type entry[K comparable, V any] struct {
	key   K
	value V
	prev  *entry[K, V]
	next  *entry[K, V]
}

func newLRUCache[K comparable, V any](maxEntries int) *lruCache[K, V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache[K, V]{
		maxEntries: maxEntries,
		entries:    make(map[K]*entry[K, V]),
	}
}

func (c *lruCache[K, V]) get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[K, V]) put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[K, V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[K, V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[K, V]) moveToFront(e *entry[K, V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[K, V]) addToFront(e *entry[K, V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[K, V]) remove(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[K, V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
