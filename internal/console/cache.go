package console

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Query cache keys.
const (
	KeyRoles         = "roles"
	KeyPlans         = "plans"
	KeyUsers         = "users"
	KeyNotifications = "notifications"
	KeyAPIQuota      = "api-quota"
	KeySecurity      = "security"
)

// UserCreditsKey is the cache key of one user's credit view.
func UserCreditsKey(userID int64) string {
	return "user-credits:" + strconv.FormatInt(userID, 10)
}

// QueryCache memoises GET results by key until invalidated. Each key carries a
// generation; a load started before an invalidation never populates the cache.
type QueryCache struct {
	mu           sync.Mutex
	entries      map[string]any
	generations  map[string]uint64
	group        singleflight.Group
	onInvalidate func(key string)
}

// NewQueryCache returns an empty cache. onInvalidate, when non-nil, observes
// every invalidated key.
func NewQueryCache(onInvalidate func(key string)) *QueryCache {
	return &QueryCache{
		entries:      make(map[string]any),
		generations:  make(map[string]uint64),
		onInvalidate: onInvalidate,
	}
}

// Invalidate drops keys so the next read refetches, even while an older load
// of the same key is still in flight.
func (c *QueryCache) Invalidate(keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
		c.generations[key]++
		c.group.Forget(key)
	}
	c.mu.Unlock()
	if c.onInvalidate != nil {
		for _, key := range keys {
			c.onInvalidate(key)
		}
	}
}

func (c *QueryCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *QueryCache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key]
}

// store keeps v only if key has not been invalidated since gen was read.
func (c *QueryCache) store(key string, gen uint64, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key] == gen {
		c.entries[key] = v
	}
}

// query returns the cached value for key or loads it. Concurrent loads of the
// same key share one request.
func query[T any](ctx context.Context, c *QueryCache, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	if v, ok := c.get(key); ok {
		return v.(T), nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		gen := c.generation(key)
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, gen, loaded)
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
