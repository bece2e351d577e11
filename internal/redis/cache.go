package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - conversion:status:{attachment_id} - status string, TTL set by the writer

const statusKeyPrefix = "conversion:status:"

// StatusCache is a string key-value board with per-key TTL.
type StatusCache struct {
	client *goredis.Client
	prefix string
}

// NewStatusCache creates a status cache namespaced under conversion:status:.
func NewStatusCache(client *goredis.Client) *StatusCache {
	return &StatusCache{client: client, prefix: statusKeyPrefix}
}

// Set upserts key with value, expiring after ttl.
func (c *StatusCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("status cache set %s: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key. ok is false on a miss.
func (c *StatusCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil // Cache miss
	}
	if err != nil {
		return "", false, fmt.Errorf("status cache get %s: %w", key, err)
	}
	return value, true, nil
}

// Ping checks if Redis is available
func (c *StatusCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
