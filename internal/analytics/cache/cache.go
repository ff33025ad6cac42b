package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pharmstock/pharmstock-backend/pkg/logger"
)

// ReportCache caches rendered analytics reports. Reports are derived data,
// so a stale entry is acceptable for the configured TTL.
type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	Invalidate(ctx context.Context, keys ...string)
}

// RedisCache is a ReportCache backed by redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedisCache creates a redis-backed report cache
func NewRedisCache(addr, password string, db int, ttl time.Duration, log *logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: log,
	}, nil
}

// Get loads a cached report into dest, reporting whether it was found
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("report cache read failed")
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("report cache entry corrupt, discarding")
		c.client.Del(ctx, key)
		return false
	}

	return true
}

// Set stores a report. Failures are logged and swallowed; the cache is
// best-effort.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("report cache marshal failed")
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
}

// Invalidate drops cached reports
func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("report cache invalidation failed")
	}
}

// Close closes the redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NoopCache satisfies ReportCache without caching anything. Used when no
// redis address is configured.
type NoopCache struct{}

// NewNoopCache creates a no-op report cache
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (c *NoopCache) Get(ctx context.Context, key string, dest interface{}) bool { return false }
func (c *NoopCache) Set(ctx context.Context, key string, value interface{})     {}
func (c *NoopCache) Invalidate(ctx context.Context, keys ...string)             {}
