package content

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	value   any
	expires time.Time
}

// Cache is a TTL cache in front of a Source. Concurrent misses for the same
// key share one upstream fetch. Errors and fallback copy are never cached.
type Cache struct {
	src Source
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

var _ Source = (*Cache)(nil)

// NewCache wraps src. A non-positive ttl disables caching but keeps
// request deduplication.
func NewCache(src Source, ttl time.Duration) *Cache {
	return &Cache{
		src:     src,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// FetchHome returns the cached category list, fetching it when stale.
func (c *Cache) FetchHome(ctx context.Context) (*HomeData, error) {
	return cached(ctx, c, "home", c.src.FetchHome, nil)
}

// FetchCategory caches each category under its own key.
func (c *Cache) FetchCategory(ctx context.Context, categoryID string) (*CalculatorData, error) {
	return cached(ctx, c, "category:"+categoryID, func(ctx context.Context) (*CalculatorData, error) {
		return c.src.FetchCategory(ctx, categoryID)
	}, nil)
}

// FetchResults caches the results copy. Fallback copy is served but not
// cached, so the next call tries the network again.
func (c *Cache) FetchResults(ctx context.Context) (*Results, error) {
	return cached(ctx, c, "results", c.src.FetchResults, func(r *Results) bool { return !r.Fallback })
}

// FetchEmailTemplate caches the confirmation template, except fallback copy.
func (c *Cache) FetchEmailTemplate(ctx context.Context) (*EmailTemplate, error) {
	return cached(ctx, c, "email", c.src.FetchEmailTemplate, func(t *EmailTemplate) bool { return !t.Fallback })
}

// Invalidate drops every cached entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key string, v any) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: v, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// cached serves key from the cache or fetches it once for all concurrent
// callers. keep decides whether a fetched value may be stored; nil keeps all.
func cached[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error), keep func(T) bool) (T, error) {
	if v, ok := c.lookup(key); ok {
		CacheLookups.WithLabelValues("hit").Inc()
		return v.(T), nil
	}
	CacheLookups.WithLabelValues("miss").Inc()

	// The shared fetch must not be cut short by whichever caller started it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		v, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if keep == nil || keep(v) {
			c.store(key, v)
		}
		return v, nil
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, &FetchError{Kind: KindNetwork, Slug: key, Err: ctx.Err()}
	}
}
