package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// takeScript implements the fixed window atomically: reject without
// incrementing once the count reaches the limit, otherwise increment and
// start the window on first hit. Returns {allowed, count, pttl_ms}.
var takeScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
if current >= limit then
  return {0, current, redis.call('PTTL', KEYS[1])}
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, current, redis.call('PTTL', KEYS[1])}
`)

// RedisStore is the shared counter store for multi-instance deployments.
type RedisStore struct {
	client *redis.Client
	clock  Clock
}

// NewRedisStore verifies connectivity and returns the store.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: client, clock: SystemClock{}}, nil
}

// Take implements Store.
func (s *RedisStore) Take(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	vals, err := takeScript.Run(ctx, s.client,
		[]string{"ratelimit:" + key},
		limit, window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate-limit script: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("rate-limit script: unexpected reply %v", vals)
	}

	allowed := vals[0] == 1
	count := int(vals[1])
	ttl := time.Duration(vals[2]) * time.Millisecond
	if ttl < 0 {
		ttl = window
	}

	remaining := limit - count
	if remaining < 0 || !allowed {
		remaining = 0
	}

	return Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		Reset:     s.clock.Now().Add(ttl),
	}, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
