package reports

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

const (
	cacheVersionKey = "reports:version"
	// defaultLoadTimeout bounds a shared load once it no longer follows the
	// context of the caller that started it.
	defaultLoadTimeout = 30 * time.Second
)

// Cache wraps Redis caching of report payloads. Keys carry a version so a
// single Bump invalidates every cached report.
type Cache struct {
	client      *redis.Client
	ttl         time.Duration
	loadTimeout time.Duration
	group       singleflight.Group
}

// NewCache instantiates the cache helper. A nil client disables caching but
// keeps concurrent loads de-duplicated.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, loadTimeout: defaultLoadTimeout}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	return ver, err
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("reports:%s:%d", strings.Join(parts, ":"), ver), nil
}

// FetchJSON loads a cached value into dest or populates it using loader.
// Concurrent callers for the same key share one loader run. The shared run
// keeps the values of the starting caller's context but not its
// cancellation, so one caller leaving does not fail the others; each caller
// still stops waiting when its own ctx ends. Redis failures fall back to the
// loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("reports: cache loader required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
	}
	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout())
		defer cancel()
		value, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if c.client != nil && c.ttl > 0 {
			_ = c.client.Set(loadCtx, key, raw, c.ttl).Err()
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

func (c *Cache) timeout() time.Duration {
	if c.loadTimeout > 0 {
		return c.loadTimeout
	}
	return defaultLoadTimeout
}

// Bump invalidates every cached report.
func (c *Cache) Bump(ctx context.Context) (int64, error) {
	if c.client == nil {
		return 0, nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Result()
}
