package schema

import (
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of schema contexts a Cache retains before
// evicting old entries.
const DefaultCacheSize = 100

// LoadFunc retrieves and resolves the schema document identified by uri,
// which is always a canonical absolute URI string.
type LoadFunc func(ctx context.Context, uri string) (*Context, error)

// Cache is a bounded load-through store of schema contexts keyed by
// canonical URI. It lazily loads entries on first access and returns cached
// results thereafter; once the bound is reached, inserting evicts the least
// recently used entry.
//
// Cache is safe for concurrent use. Concurrent Gets for the same missing key
// share a single load, while loads for distinct keys proceed independently.
type Cache struct {
	load  LoadFunc
	store *lru.Cache[string, *Context]
	group singleflight.Group
}

// NewCache creates a Cache holding at most size entries, populated on miss
// by load. A size of zero or less falls back to DefaultCacheSize.
func NewCache(load LoadFunc, size int) (*Cache, error) {
	if load == nil {
		return nil, errors.New("cache: load function is required")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	store, err := lru.New[string, *Context](size)
	if err != nil {
		return nil, err
	}
	return &Cache{load: load, store: store}, nil
}

// Get returns the cached schema context for uri, loading it on first access.
// A failed load is reported to every caller waiting on uri and is not
// retained, so a later Get retries it.
func (c *Cache) Get(ctx context.Context, uri string) (*Context, error) {
	if sc, ok := c.store.Get(uri); ok {
		return sc, nil
	}

	v, err, _ := c.group.Do(uri, func() (interface{}, error) {
		// A load for uri may have completed between the lookup above
		// and this flight starting; it must not run again.
		if sc, ok := c.store.Get(uri); ok {
			return sc, nil
		}
		sc, err := c.load(ctx, uri)
		if err != nil {
			return nil, err
		}
		c.store.Add(uri, sc)
		return sc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Context), nil
}

// Put inserts sc under uri, overwriting any previous entry. Put never
// triggers a load.
func (c *Cache) Put(uri string, sc *Context) {
	c.store.Add(uri, sc)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.store.Len()
}
