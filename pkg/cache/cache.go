// Package cache wraps the Redis client and the small pieces of shared state
// kept in it.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/storefront/config"
)

// Connect creates the Redis client and verifies the connection with a ping.
// It returns nil, nil when Redis is disabled in config so the caller can
// fall back to in-process implementations.
func Connect(ctx context.Context) (*redis.Client, error) {
	addr := config.RedisAddr()
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return rdb, nil
}
