package feature

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDecisionPrefix = "feature:decision"

// RedisDecisionCache is a DecisionCache backed by Redis, for deployments
// where several processes serve the same users and should agree on cached
// decisions. Expiry is delegated to Redis TTLs; Clear walks an index set of
// live keys so it doesn't need a blocking SCAN over the whole keyspace.
//
// Cache failures degrade to misses: a broken Redis never breaks a request,
// it only costs a re-evaluation.
type RedisDecisionCache struct {
	client redis.UniversalClient
	prefix string
	log    *slog.Logger

	mu  sync.RWMutex
	ttl time.Duration
}

// RedisDecisionCacheOption configures a RedisDecisionCache.
type RedisDecisionCacheOption func(*RedisDecisionCache)

// WithDecisionPrefix namespaces the cache keys, e.g. per environment.
func WithDecisionPrefix(prefix string) RedisDecisionCacheOption {
	return func(c *RedisDecisionCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithDecisionTTL sets the initial staleness window.
func WithDecisionTTL(ttl time.Duration) RedisDecisionCacheOption {
	return func(c *RedisDecisionCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithDecisionLogger sets the logger for degraded-cache diagnostics.
func WithDecisionLogger(log *slog.Logger) RedisDecisionCacheOption {
	return func(c *RedisDecisionCache) {
		if log != nil {
			c.log = log
		}
	}
}

// NewRedisDecisionCache creates a Redis-backed decision cache.
// Panics if client is nil to fail fast during initialization.
func NewRedisDecisionCache(client redis.UniversalClient, opts ...RedisDecisionCacheOption) *RedisDecisionCache {
	if client == nil {
		panic("feature: redis client is required")
	}
	c := &RedisDecisionCache{
		client: client,
		prefix: defaultDecisionPrefix,
		log:    slog.Default(),
		ttl:    DefaultDecisionTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisDecisionCache) Get(ctx context.Context, flagKey, userID string) (bool, bool) {
	val, err := c.client.Get(ctx, c.dataKey(flagKey, userID)).Result()
	if err == redis.Nil {
		return false, false
	}
	if err != nil {
		c.log.WarnContext(ctx, "decision cache read failed", slog.Any("error", err))
		return false, false
	}
	return val == "1", true
}

func (c *RedisDecisionCache) Set(ctx context.Context, flagKey, userID string, enabled bool) {
	val := "0"
	if enabled {
		val = "1"
	}

	c.mu.RLock()
	ttl := c.ttl
	c.mu.RUnlock()

	dataKey := c.dataKey(flagKey, userID)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, dataKey, val, ttl)
	pipe.SAdd(ctx, c.indexKey(), dataKey)
	// The index outlives its members slightly so Clear still finds keys that
	// are about to expire.
	pipe.Expire(ctx, c.indexKey(), ttl+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.WarnContext(ctx, "decision cache write failed", slog.Any("error", err))
	}
}

func (c *RedisDecisionCache) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}

func (c *RedisDecisionCache) Clear(ctx context.Context) {
	keys, err := c.client.SMembers(ctx, c.indexKey()).Result()
	if err != nil && err != redis.Nil {
		c.log.WarnContext(ctx, "decision cache clear failed", slog.Any("error", err))
		return
	}

	pipe := c.client.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, c.indexKey())
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.WarnContext(ctx, "decision cache clear failed", slog.Any("error", err))
	}
}

func (c *RedisDecisionCache) dataKey(flagKey, userID string) string {
	return c.prefix + ":" + flagKey + ":" + userID
}

func (c *RedisDecisionCache) indexKey() string {
	return c.prefix + ":index"
}
