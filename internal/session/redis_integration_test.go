//go:build integration

package session

// Run with: go test -tags integration ./internal/session/... -v

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"flea/internal/infra"
)

func TestRedisStore_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStore(rdb)
	require.NoError(t, store.Commit("abc", []byte("payload"), time.Now().Add(time.Minute)))

	got, found, err := store.Find("abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("payload"), got)

	ttl, err := rdb.TTL(ctx, redisKeyPrefix+"abc").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, store.Delete("abc"))
	_, found, err = store.Find("abc")
	require.NoError(t, err)
	assert.False(t, found)
}
