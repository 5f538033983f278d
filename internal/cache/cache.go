// Package cache stores computed rating and analytics results in Redis.
//
// Entries are namespaced by a generation counter. Any request mutation bumps
// the generation, which orphans every previously cached result at once; the
// orphans then expire through their TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// LookupRecorder observes cache hits and misses.
type LookupRecorder interface {
	RecordCacheLookup(hit bool)
}

// Cache is a read-through JSON cache. A Cache without a client is a no-op.
type Cache struct {
	client   *redis.Client
	prefix   string
	ttl      time.Duration
	recorder LookupRecorder
	logger   *zap.Logger
}

// New builds a cache. client may be nil to disable caching.
func New(client *redis.Client, cfg config.CacheConfig, recorder LookupRecorder, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "helpdesk"
	}
	return &Cache{client: client, prefix: prefix, ttl: cfg.TTL(), recorder: recorder, logger: logger}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) generationKey() string {
	return c.prefix + ":generation"
}

func (c *Cache) key(ctx context.Context, name string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s:v%d:%s", c.prefix, gen, name), nil
}

// Invalidate drops every cached entry by moving to a new generation.
func (c *Cache) Invalidate(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Incr(ctx, c.generationKey()).Err()
}

// HandleEvent invalidates the cache; it is subscribed to request events.
func (c *Cache) HandleEvent(ctx context.Context, _ events.Event) error {
	return c.Invalidate(ctx)
}

func (c *Cache) get(ctx context.Context, name string, dest any) bool {
	key, err := c.key(ctx, name)
	if err != nil {
		c.logger.Warn("cache generation lookup failed", zap.String("key", name), zap.Error(err))
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) set(ctx context.Context, name string, value any) {
	key, err := c.key(ctx, name)
	if err != nil {
		c.logger.Warn("cache generation lookup failed", zap.String("key", name), zap.Error(err))
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) record(hit bool) {
	if c.recorder != nil {
		c.recorder.RecordCacheLookup(hit)
	}
}

// Remember returns the cached value for name, or computes it with load and
// stores the result. Redis failures fall back to load.
func Remember[T any](ctx context.Context, c *Cache, name string, load func(context.Context) (T, error)) (T, error) {
	if !c.Enabled() {
		return load(ctx)
	}

	var cached T
	if c.get(ctx, name, &cached) {
		c.record(true)
		return cached, nil
	}
	c.record(false)

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	c.set(ctx, name, value)
	return value, nil
}
