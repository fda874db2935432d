package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/utils"
)

// Cache is a thin redis wrapper used for short-lived computed payloads such
// as the per-owner statistics. Every method is nil-safe: with no redis
// configured the cache degrades to a no-op and callers recompute.
type Cache struct {
	rdb *redis.Client
	log *logger.Logger
}

// New connects to redis when REDIS_ADDR is set, otherwise returns a disabled
// cache. A failed ping also disables the cache; the API stays up without it.
func New(ctx context.Context, log *logger.Logger) *Cache {
	addr := utils.GetEnv("REDIS_ADDR", "", log)
	if addr == "" {
		log.Info("redis not configured, cache disabled")
		return &Cache{log: log}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: utils.GetEnv("REDIS_PASSWORD", "", log),
		DB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed, cache disabled", "error", err)
		return &Cache{log: log}
	}
	log.Info("redis cache connected", "addr", addr)
	return &Cache{rdb: rdb, log: log}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		c.log.Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache delete failed", "error", err)
	}
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
