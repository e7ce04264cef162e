// Package redis builds the shared Redis client used by the session store
// and the rate limiter.
package redis

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/cookai-labs/sessiond/pkg/config"
)

// New creates a Redis client from configuration and verifies the connection
// with Ping. Every command issued through the client is counted in
// Prometheus via an attached hook.
func New(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	client.AddHook(metricsHook{})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return client, nil
}
