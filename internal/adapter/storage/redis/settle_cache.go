package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SettleCache implements ports.SettleCache: the fast path for duplicate
// settle deliveries. The settlement_records table stays authoritative; a cache
// miss only costs a DB round-trip.
type SettleCache struct {
	client *goredis.Client
	prefix string
}

// NewSettleCache creates a Redis-backed settle result cache.
func NewSettleCache(client *goredis.Client) *SettleCache {
	return &SettleCache{
		client: client,
		prefix: "settle:",
	}
}

// Get retrieves a cached settle response by idempotency key.
// Returns nil, nil on miss.
func (c *SettleCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis settle cache get: %w", err)
	}
	return val, nil
}

// Set stores a settle response with TTL.
func (c *SettleCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis settle cache set: %w", err)
	}
	return nil
}
