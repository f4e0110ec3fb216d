package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// listIndexKey is a set holding every cached list page key so that an
// invalidation can drop them without a SCAN
const listIndexKey = "shopadmin:orders:index"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisOrderViewCache shares order views across service instances
type RedisOrderViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisOrderViewCache connects to Redis and verifies the connection
func NewRedisOrderViewCache(cfg RedisConfig) (*RedisOrderViewCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisOrderViewCacheWithClient(client, cfg.TTL), nil
}

// NewRedisOrderViewCacheWithClient creates a cache on an existing client
func NewRedisOrderViewCacheWithClient(client *redis.Client, ttl time.Duration) *RedisOrderViewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisOrderViewCache{client: client, ttl: ttl}
}

// Get implements OrderViewCache. Redis errors read as a miss.
func (c *RedisOrderViewCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set implements OrderViewCache
func (c *RedisOrderViewCache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, c.ttl)
		if isListKey(key) {
			pipe.SAdd(ctx, listIndexKey, key)
			pipe.Expire(ctx, listIndexKey, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}

// InvalidateOrder implements OrderViewCache
func (c *RedisOrderViewCache) InvalidateOrder(ctx context.Context, orderID string) error {
	keys, err := c.client.SMembers(ctx, listIndexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read list index: %w", err)
	}
	keys = append(keys, OrderKey(orderID), listIndexKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate order %s: %w", orderID, err)
	}
	return nil
}

// Ping checks the Redis connection
func (c *RedisOrderViewCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisOrderViewCache) Close() error {
	return c.client.Close()
}
