// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"tidybook/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the generic cache client.
var CacheClient *redis.Client

// InitRedis initializes the generic Redis cache client.
func InitRedis() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitRedis()
	}
	return CacheClient
}

// Cache is the explicit cache abstraction injected into the tool dispatcher.
// Entries are grouped by kind ("services", "faqs", ...) so that catalog
// mutations can drop a whole kind at once.
type Cache interface {
	Get(ctx context.Context, kind, key string) ([]byte, bool)
	Set(ctx context.Context, kind, key string, value []byte, ttl time.Duration)
	Invalidate(ctx context.Context, kind string)
}

// RedisCache implements Cache on a Redis client. Invalidation bumps a
// per-kind generation counter baked into every key, so stale entries simply
// age out instead of requiring a keyspace scan.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) generation(ctx context.Context, kind string) string {
	gen, err := c.client.Get(ctx, c.prefix+":gen:"+kind).Result()
	if err != nil {
		return "0"
	}
	return gen
}

func (c *RedisCache) entryKey(ctx context.Context, kind, key string) string {
	return fmt.Sprintf("%s:%s:%s:%s", c.prefix, kind, c.generation(ctx, kind), key)
}

func (c *RedisCache) Get(ctx context.Context, kind, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, c.entryKey(ctx, kind, key)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *RedisCache) Set(ctx context.Context, kind, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, c.entryKey(ctx, kind, key), value, ttl).Err(); err != nil {
		GetLogger().Sugar().Warnf("cache set failed for %s/%s: %v", kind, key, err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, kind string) {
	if err := c.client.Incr(ctx, c.prefix+":gen:"+kind).Err(); err != nil {
		GetLogger().Sugar().Warnf("cache invalidate failed for %s: %v", kind, err)
	}
}
