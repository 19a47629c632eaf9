package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON values under a generation-scoped prefix. Purge
// bumps the generation so stale keys are never read again and expire on
// their own TTL.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration) *RedisCache[T] {
	return &RedisCache[T]{client: client, prefix: prefix, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache[T]) genKey() string { return c.prefix + ":gen" }

func (c *RedisCache[T]) key(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, c.genKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, key), nil
}

func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	k, err := c.key(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Redis cache generation read failed", "error", err)
		return zero, false
	}
	raw, err := c.client.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "Redis cache read failed", "key", k, "error", err)
		}
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.WarnContext(ctx, "Redis cache entry undecodable", "key", k, "error", err)
		return zero, false
	}
	return v, true
}

func (c *RedisCache[T]) Set(ctx context.Context, key string, value T) {
	k, err := c.key(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Redis cache generation read failed", "error", err)
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		slog.WarnContext(ctx, "Redis cache encode failed", "key", k, "error", err)
		return
	}
	if err := c.client.Set(ctx, k, raw, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache write failed", "key", k, "error", err)
	}
}

func (c *RedisCache[T]) Purge(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.genKey()).Err(); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	return nil
}
