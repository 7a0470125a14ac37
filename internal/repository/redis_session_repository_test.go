package repository

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	connStr, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(connStr)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestRedisSessionRepository(t *testing.T) {
	rdb := startRedis(t)
	exerciseRepository(t, NewRedisSessionRepository(rdb, time.Minute))
}

func TestRedisSessionRepository_RefreshesTTL(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()
	repo := NewRedisSessionRepository(rdb, time.Minute)

	s := newSession(t, "ttl")
	require.NoError(t, repo.Create(ctx, s))

	ttl, err := rdb.TTL(ctx, sessionKey(s.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
	assert.LessOrEqual(t, ttl, time.Minute)
}
