package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/piratenetwork/zsign/internal/env"
)

const pingTimeout = 2 * time.Second

// New connects to the hand-off redis and checks it answers. The client is
// closed again when the check fails.
func New(cfg *env.AppConfig, log *slog.Logger) (*redis.Client, error) {
	poolSize := cfg.RedisPoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:       cfg.RedisAddress,
		DB:         cfg.RedisDB,
		ClientName: cfg.Name,

		MaxRetries:      3,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		PoolSize:        poolSize,
		MinIdleConns:    1,
		PoolTimeout:     1500 * time.Millisecond,
		ConnMaxIdleTime: 5 * time.Minute,

		OnConnect: func(_ context.Context, _ *redis.Conn) error {
			log.Debug("redis(handoff): connected", slog.String("addr", cfg.RedisAddress), slog.Int("db", cfg.RedisDB))
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddress, err)
	}

	return client, nil
}
