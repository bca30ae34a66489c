package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements Limiter on a shared Redis instance so that all
// server replicas count against the same windows. INCR is atomic per key;
// EXPIRE NX pins the window to the first request without extending it on
// later ones.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter creates a new [RedisLimiter] instance.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisLimiter) redisKey(action, callerKey string) string {
	if r.prefix == "" {
		return windowKey(action, callerKey)
	}
	return fmt.Sprintf("%s:%s", r.prefix, windowKey(action, callerKey))
}

// Allow implements Limiter.Allow.
func (r *RedisLimiter) Allow(ctx context.Context, action, callerKey string, policy Policy) (*Decision, error) {
	key := r.redisKey(action, callerKey)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, policy.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	count := incr.Val()
	if count <= int64(policy.Limit) {
		return &Decision{
			Allowed:   true,
			Remaining: policy.Limit - int(count),
		}, nil
	}

	retryAfter, err := r.client.TTL(ctx, key).Result()
	if err != nil || retryAfter < 0 {
		retryAfter = policy.Window
	}
	return &Decision{
		Allowed:    false,
		RetryAfter: retryAfter,
	}, nil
}

var _ Limiter = (*RedisLimiter)(nil)
