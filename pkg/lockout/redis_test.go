package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/pkg/lockout"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestRedisLockout(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()
	l := lockout.NewRedis(rdb, lockout.DefaultPolicy, nil)

	for range 2 {
		l.RecordFailure(ctx, "198.51.100.7")
	}
	locked, _ := l.IsLocked(ctx, "198.51.100.7")
	require.False(t, locked)

	l.RecordFailure(ctx, "198.51.100.7")
	locked, remaining := l.IsLocked(ctx, "198.51.100.7")
	require.True(t, locked)
	require.InDelta(t, (15 * time.Minute).Seconds(), remaining.Seconds(), 5)

	ttl, err := rdb.TTL(ctx, "clubhouse:lockout:198.51.100.7").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, 24*time.Hour)

	l.RecordSuccess(ctx, "198.51.100.7")
	locked, _ = l.IsLocked(ctx, "198.51.100.7")
	require.False(t, locked)
}

func TestRedisLockoutFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })

	l := lockout.NewRedis(rdb, lockout.DefaultPolicy, nil)
	ctx := context.Background()
	for range 3 {
		l.RecordFailure(ctx, "k")
	}
	locked, _ := l.IsLocked(ctx, "k")
	require.False(t, locked)
}
