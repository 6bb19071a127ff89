// Package cache holds the Redis-backed read caches.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/fiducialend/internal/config"
)

// OpenRedis connects to Redis and pings it once.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}
