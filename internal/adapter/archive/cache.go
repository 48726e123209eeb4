package archive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/heat-index-etl/internal/domain"
	"github.com/couchcryptid/heat-index-etl/internal/observability"
)

// CachedSource wraps a RasterSource with in-memory LRU caches, one for
// raster windows and one for boundary assets. Periodic refresh runs re-fetch
// the same large date windows; the cache keeps those off the archive API.
type CachedSource struct {
	inner   domain.RasterSource
	rasters *lruCache[[]domain.Raster]
	assets  *lruCache[*domain.Boundary]
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a raster source.
func NewCachedSource(inner domain.RasterSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		rasters: newLRUCache[[]domain.Raster](maxEntries),
		assets:  newLRUCache[*domain.Boundary](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) FetchRasters(ctx context.Context, band string, start, end time.Time) ([]domain.Raster, error) {
	key := fmt.Sprintf("%s|%s|%s", band, start.UTC().Format(domain.DateLayout), end.UTC().Format(domain.DateLayout))
	if rasters, ok := c.rasters.get(key); ok {
		c.metrics.ArchiveCache.WithLabelValues("rasters", "hit").Inc()
		return rasters, nil
	}
	c.metrics.ArchiveCache.WithLabelValues("rasters", "miss").Inc()

	rasters, err := c.inner.FetchRasters(ctx, band, start, end)
	if err != nil {
		return rasters, err
	}
	// Only cache non-empty windows so days published late can still show up
	// on the next refresh.
	if len(rasters) > 0 {
		c.rasters.put(key, rasters)
	}
	return rasters, nil
}

func (c *CachedSource) FetchBoundary(ctx context.Context, asset string) (*domain.Boundary, error) {
	if b, ok := c.assets.get(asset); ok {
		c.metrics.ArchiveCache.WithLabelValues("asset", "hit").Inc()
		return b, nil
	}
	c.metrics.ArchiveCache.WithLabelValues("asset", "miss").Inc()

	b, err := c.inner.FetchBoundary(ctx, asset)
	if err != nil {
		return nil, err
	}
	c.assets.put(asset, b)
	return b, nil
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
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

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
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

func (c *lruCache[V]) remove(e *entry[V]) {
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

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
