package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAvailabilityCache is a redis-backed cache for stock availability
// queries. The ledger invalidates entries on every mutation, so the TTL is
// only a backstop against missed invalidations.
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

func key(productID, zone string) string {
	return "stock:avail:" + productID + ":" + zone
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, productID, zone string) (int, bool, error) {
	v, err := c.client.Get(ctx, key(productID, zone)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("availability cache get: %w", err)
	}

	qty, err := strconv.Atoi(v)
	if err != nil {
		// A corrupt value reads as a miss; the next Put repairs it.
		return 0, false, nil
	}
	return qty, true, nil
}

func (c *RedisAvailabilityCache) Put(ctx context.Context, productID, zone string, qty int) error {
	if err := c.client.Set(ctx, key(productID, zone), strconv.Itoa(qty), c.ttl).Err(); err != nil {
		return fmt.Errorf("availability cache put: %w", err)
	}
	return nil
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, productID, zone string) error {
	if err := c.client.Del(ctx, key(productID, zone)).Err(); err != nil {
		return fmt.Errorf("availability cache invalidate: %w", err)
	}
	return nil
}
