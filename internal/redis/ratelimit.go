package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Rate limiting key patterns:
// - ratelimit:{scope}:{client} - TTL = window, fixed window counter

// Limit is the allowance of one scope.
type Limit struct {
	Max    int
	Window time.Duration
}

// RateLimitConfig maps a scope (callback, rooms, ...) to its limit.
type RateLimitConfig map[string]Limit

// DefaultRateLimitConfig returns the limits of the public endpoints.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		"callback": {Max: 120, Window: time.Minute},
		"rooms":    {Max: 20, Window: time.Minute},
	}
}

type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{client: client, config: config}
}

var limitScript = goredis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = redis.call('GET', key)
	if current == false then
		current = 0
	else
		current = tonumber(current)
	end

	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end

	if current < limit then
		redis.call('INCR', key)
		if ttl == window then
			redis.call('EXPIRE', key, window)
		end
		return {1, limit - current - 1, ttl}
	end
	return {0, 0, ttl}
`)

// Allow consumes one unit of client's allowance in scope. Scopes without a
// configured limit are unlimited.
func (r *RateLimiter) Allow(ctx context.Context, scope, client string) (*RateLimitResult, error) {
	limit, ok := r.config[scope]
	if !ok || limit.Max <= 0 {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf("ratelimit:%s:%s", scope, client)
	res, err := limitScript.Run(ctx, r.client, []string{key}, limit.Max, int(limit.Window.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	ttl, _ := values[2].(int64)

	return &RateLimitResult{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetIn:   time.Duration(ttl) * time.Second,
		Limit:     limit.Max,
	}, nil
}

// Reset clears client's counter in scope.
func (r *RateLimiter) Reset(ctx context.Context, scope, client string) error {
	return r.client.Del(ctx, fmt.Sprintf("ratelimit:%s:%s", scope, client)).Err()
}
