package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const defaultKeyPrefix = "catalog:rate:"

// RedisRateCache shares rates between indexer processes through Redis
type RedisRateCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRateCache connects to Redis and verifies the connection
func NewRedisRateCache(addr, password string, db int) (*RedisRateCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisRateCacheWithClient(client, defaultKeyPrefix), nil
}

// NewRedisRateCacheWithClient creates a cache over an existing client
func NewRedisRateCacheWithClient(client *redis.Client, keyPrefix string) *RedisRateCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisRateCache{client: client, keyPrefix: keyPrefix}
}

// Get returns a cached rate
func (c *RedisRateCache) Get(ctx context.Context, from, to valueobject.Currency) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+rateKey(from, to)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to read cached rate: %w", err)
	}

	rate, err := decimal.NewFromString(raw)
	if err != nil {
		// a corrupt entry is a miss; the caller reloads and overwrites it
		return decimal.Zero, false, nil
	}
	return rate, true, nil
}

// Set stores a rate with a TTL
func (c *RedisRateCache) Set(ctx context.Context, from, to valueobject.Currency, rate decimal.Decimal, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+rateKey(from, to), rate.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache rate: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisRateCache) Close() error {
	return c.client.Close()
}

var _ RateCache = (*RedisRateCache)(nil)
