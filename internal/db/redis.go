package db

import (
	"context"
	"ctchen222/quantum-tictactoe/internal/config"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient creates a Redis client for conf and pings it so that a
// misconfigured address fails at startup.
func NewRedisClient(ctx context.Context, conf config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", conf.Addr, err)
	}

	return client, nil
}
