package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "rfpdesk"

// JSONCache stores JSON documents in Redis under versioned namespaces.
// Invalidating a namespace bumps its version so every key built before the
// bump is orphaned and expires on its own TTL.
type JSONCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewJSONCache instantiates the cache helper. A nil client disables caching:
// every Fetch goes straight to the loader.
func NewJSONCache(client *redis.Client, ttl time.Duration) *JSONCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &JSONCache{client: client, ttl: ttl}
}

func versionKey(namespace string) string {
	return keyPrefix + ":" + namespace + ":version"
}

// Version returns the current namespace version, initialising when missing.
func (c *JSONCache) Version(ctx context.Context, namespace string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(namespace)).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey(namespace), 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the cache key with the current namespace version.
func (c *JSONCache) BuildKey(ctx context.Context, namespace string, parts ...string) (string, error) {
	ver, err := c.Version(ctx, namespace)
	if err != nil {
		return "", err
	}
	segments := append([]string{keyPrefix, namespace}, parts...)
	return fmt.Sprintf("%s:v%d", strings.Join(segments, ":"), ver), nil
}

// Fetch loads a cached value or populates it using the loader. Concurrent
// misses for the same key share one loader call.
func (c *JSONCache) Fetch(ctx context.Context, namespace, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("platform/cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return roundTrip(value, dest)
	}
	fullKey, err := c.BuildKey(ctx, namespace, key)
	if err != nil {
		return err
	}
	payload, err := c.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}
	raw, err, _ := c.group.Do(fullKey, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, fullKey, encoded, c.ttl).Err(); err != nil {
			return nil, err
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

// Invalidate bumps the namespace version.
func (c *JSONCache) Invalidate(ctx context.Context, namespace string) error {
	if c == nil || c.client == nil {
		return nil
	}
	_, err := c.client.Incr(ctx, versionKey(namespace)).Result()
	return err
}

func roundTrip(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
