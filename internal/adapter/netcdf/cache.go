package netcdf

import (
	"container/list"
	"slices"
	"strings"
	"sync"

	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

// CachedDecoder wraps a GridDecoder with an in-memory LRU cache of decoded
// grids, so repeated lookups against the same file decode it once.
type CachedDecoder struct {
	inner domain.GridDecoder
	cache *gridCache
}

// NewCachedDecoder creates a cache decorator around a decoder.
func NewCachedDecoder(inner domain.GridDecoder, maxEntries int) *CachedDecoder {
	return &CachedDecoder{
		inner: inner,
		cache: newGridCache(maxEntries),
	}
}

// gridKey identifies a decode by file and requested field set. The field
// set is sorted, so request order does not matter.
type gridKey struct {
	path   string
	fields string
}

func keyOf(path string, fields []string) gridKey {
	sorted := slices.Clone(fields)
	slices.Sort(sorted)
	return gridKey{path: path, fields: strings.Join(sorted, "\x00")}
}

func (c *CachedDecoder) Decode(path string, fields []string) (*domain.Grid, error) {
	key := keyOf(path, fields)
	if grid, ok := c.cache.get(key); ok {
		return grid, nil
	}
	grid, err := c.inner.Decode(path, fields)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, grid)
	return grid, nil
}

// gridCache holds at most capacity grids; the front of order is the most
// recently used.
type gridCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	byKey    map[gridKey]*list.Element
}

type cachedGrid struct {
	key  gridKey
	grid *domain.Grid
}

func newGridCache(capacity int) *gridCache {
	return &gridCache{
		capacity: max(capacity, 1),
		order:    list.New(),
		byKey:    make(map[gridKey]*list.Element),
	}
}

func (c *gridCache) get(key gridKey) (*domain.Grid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cachedGrid).grid, true
}

func (c *gridCache) put(key gridKey, grid *domain.Grid) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[key]; ok {
		el.Value.(*cachedGrid).grid = grid
		c.order.MoveToFront(el)
		return
	}
	c.byKey[key] = c.order.PushFront(&cachedGrid{key: key, grid: grid})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byKey, oldest.Value.(*cachedGrid).key)
	}
}

func (c *gridCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
