package providers

import (
	"context"
	"sync"

	"github.com/umbrella-forecast/backend/internal/observability"
	"github.com/umbrella-forecast/backend/internal/weather"
)

// CachedSource wraps a weather.Source with an in-memory LRU cache for
// geocoding lookups. City coordinates are stable, so cached entries have
// no TTL; current conditions and forecasts pass through uncached.
type CachedSource struct {
	inner   weather.Source
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a geocoding cache decorator.
func NewCachedSource(inner weather.Source, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) Geocode(ctx context.Context, city string) ([]weather.GeoLocation, error) {
	if locs, ok := c.cache.get(city); ok {
		c.observe("hit")
		return locs, nil
	}
	c.observe("miss")

	locs, err := c.inner.Geocode(ctx, city)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so transient "not found" responses can
	// be retried.
	if len(locs) > 0 {
		c.cache.put(city, locs)
	}
	return locs, nil
}

func (c *CachedSource) Current(ctx context.Context, lat, lon float64) (weather.CurrentWeather, error) {
	return c.inner.Current(ctx, lat, lon)
}

func (c *CachedSource) Forecast(ctx context.Context, lat, lon float64) ([]weather.ForecastSample, error) {
	return c.inner.Forecast(ctx, lat, lon)
}

func (c *CachedSource) observe(result string) {
	if c.metrics != nil {
		c.metrics.GeocodeCache.WithLabelValues(result).Inc()
	}
}

// lruCache is a thread-safe LRU cache for geocoding results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []weather.GeoLocation
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]weather.GeoLocation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []weather.GeoLocation) {
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
