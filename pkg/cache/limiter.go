package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const limiterPrefix = "storefront:rate:"

// RedisLimiter counts requests in fixed windows shared by every instance.
type RedisLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: int64(max), window: window}
}

// Allow increments key's counter; the first hit of a window sets its expiry.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := limiterPrefix + key
	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("cache: rate limit: %w", err)
	}
	return incr.Val() <= l.max, nil
}
