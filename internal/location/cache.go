package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tournevent/courier/internal/telemetry"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const keyPrefix = "courier:location:"

// Cache is a Redis JSON cache for location lookups. A nil *Cache, or one
// without a client, passes every lookup through.
type Cache struct {
	rdb     redis.UniversalClient
	ttl     time.Duration
	logger  *otelzap.Logger
	metrics *telemetry.Metrics
}

// NewCache creates a cache over rdb. rdb may be nil.
func NewCache(rdb redis.UniversalClient, ttl time.Duration, logger *otelzap.Logger, metrics *telemetry.Metrics) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, logger: logger, metrics: metrics}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil
}

// Cached returns the value stored under key, calling fetch and storing its
// result on a miss. Redis failures degrade to calling fetch; fetch errors
// are never cached.
func Cached[T any](ctx context.Context, c *Cache, provider, level, key string, fetch func(context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return fetch(ctx)
	}
	key = keyPrefix + provider + ":" + key

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			c.metrics.RecordCacheLookup(provider, level, true)
			return v, nil
		}
		c.logger.Ctx(ctx).Warn("Discarding undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Ctx(ctx).Warn("Location cache read failed", zap.String("key", key), zap.Error(err))
	}
	c.metrics.RecordCacheLookup(provider, level, false)

	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Ctx(ctx).Warn("Location cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}
