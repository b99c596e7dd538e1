package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/workpay-hr/payroll-backend-go/internal/config"
)

// NewRedisClient connects to Redis, retrying the initial ping a few times
// so the API can start alongside a Redis container.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, maxRetries int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for i := 1; i <= maxRetries; i++ {
		if lastErr = rdb.Ping(ctx).Err(); lastErr == nil {
			slog.Info("Connected to Redis", "addr", cfg.Addr, "db", cfg.DB)
			return rdb, nil
		}
		slog.Warn("Redis ping failed", "attempt", i, "max_retries", maxRetries, "error", lastErr)

		if i < maxRetries {
			select {
			case <-ctx.Done():
				rdb.Close()
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}

	rdb.Close()
	return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, lastErr)
}
