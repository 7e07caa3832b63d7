package mapbox

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/drivers-report-service/internal/observability"
	"github.com/couchcryptid/drivers-report-service/internal/rankings"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Concurrent
// lookups of the same key share one upstream request.
type CachedGeocoder struct {
	inner   rankings.Geocoder
	cache   *lruCache
	group   singleflight.Group
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner rankings.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name, state string) (rankings.GeocodingResult, error) {
	key := fmt.Sprintf("fwd:%s|%s", name, state)
	return c.lookup(key, "forward", func() (rankings.GeocodingResult, error) {
		return c.inner.ForwardGeocode(ctx, name, state)
	})
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (rankings.GeocodingResult, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
	return c.lookup(key, "reverse", func() (rankings.GeocodingResult, error) {
		return c.inner.ReverseGeocode(ctx, lat, lon)
	})
}

func (c *CachedGeocoder) lookup(key, method string, fetch func() (rankings.GeocodingResult, error)) (rankings.GeocodingResult, error) {
	if result, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
		return result, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		result, err := fetch()
		if err != nil {
			return result, err
		}
		// Only cache non-empty results so transient "not found" responses can be retried.
		if result.FormattedAddress != "" {
			c.cache.put(key, result)
		}
		return result, nil
	})
	if shared {
		c.metrics.GeocodeCache.WithLabelValues(method, "shared").Inc()
	} else {
		c.metrics.GeocodeCache.WithLabelValues(method, "miss").Inc()
	}
	return v.(rankings.GeocodingResult), err
}

// lruCache is a simple thread-safe LRU cache for GeocodingResults.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value rankings.GeocodingResult
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (rankings.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return rankings.GeocodingResult{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value rankings.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
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

func (c *lruCache) remove(e *entry) {
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

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
