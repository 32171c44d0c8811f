package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps fixed-window counters in Redis. INCR is the atomic
// increment-and-fetch; the key's TTL is the window and supplies the reset
// time. Usable across many server instances.
type RedisLimiter struct {
	client redis.Cmdable
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client redis.Cmdable) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// CheckAndRecord implements Limiter.
func (l *RedisLimiter) CheckAndRecord(ctx context.Context, action, callerKey string, limit int, window time.Duration) (Result, error) {
	key := "ratelimit:" + counterKey(action, callerKey)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Result{}, fmt.Errorf("incr rate counter %s: %w", key, err)
	}

	// First call in the window starts its expiry clock. NX covers the case
	// where a prior first caller crashed between INCR and PEXPIRE.
	if count == 1 {
		if err := l.client.PExpire(ctx, key, window).Err(); err != nil {
			return Result{}, fmt.Errorf("expire rate counter %s: %w", key, err)
		}
	} else {
		if err := l.client.ExpireNX(ctx, key, window).Err(); err != nil {
			return Result{}, fmt.Errorf("expire rate counter %s: %w", key, err)
		}
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ttl rate counter %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = window
	}

	return result(int(count), limit, time.Now().Add(ttl)), nil
}
