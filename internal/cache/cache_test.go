package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

func newRedisBackedClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewClient(rdb, "roadmap:"), mr
}

func TestRedisBacked_SetGetRoundtrip(t *testing.T) {
	client, mr := newRedisBackedClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "rm-1", payload{ID: "rm-1", Score: 42.5}, time.Minute))
	assert.True(t, mr.Exists("roadmap:rm-1"))

	var got payload
	require.NoError(t, client.Get(ctx, "rm-1", &got))
	assert.Equal(t, "rm-1", got.ID)
	assert.Equal(t, 42.5, got.Score)
}

func TestRedisBacked_MissAndExpiry(t *testing.T) {
	client, mr := newRedisBackedClient(t)
	ctx := context.Background()

	var got payload
	assert.ErrorIs(t, client.Get(ctx, "absent", &got), ErrCacheMiss)

	require.NoError(t, client.Set(ctx, "rm-1", payload{ID: "rm-1"}, time.Minute))
	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, client.Get(ctx, "rm-1", &got), ErrCacheMiss)
}

func TestRedisBacked_DeleteAndExists(t *testing.T) {
	client, _ := newRedisBackedClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "rm-1", payload{ID: "rm-1"}, time.Minute))

	exists, err := client.Exists(ctx, "rm-1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, client.Delete(ctx, "rm-1"))
	exists, err = client.Exists(ctx, "rm-1")
	require.NoError(t, err)
	assert.False(t, exists)

	// deleting an absent key is not an error
	assert.NoError(t, client.Delete(ctx, "rm-1"))
}

func TestLocalFallback_WorksWithoutRedis(t *testing.T) {
	client := NewClient(nil, "roadmap:")
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "rm-1", payload{ID: "rm-1", Score: 7}, time.Minute))

	var got payload
	require.NoError(t, client.Get(ctx, "rm-1", &got))
	assert.Equal(t, 7.0, got.Score)

	require.NoError(t, client.Delete(ctx, "rm-1"))
	assert.ErrorIs(t, client.Get(ctx, "rm-1", &got), ErrCacheMiss)
}

func TestLocalFallback_TTLExpiry(t *testing.T) {
	client := NewClient(nil, "roadmap:")
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "rm-1", payload{ID: "rm-1"}, 10*time.Millisecond))

	exists, err := client.Exists(ctx, "rm-1")
	require.NoError(t, err)
	assert.True(t, exists)

	time.Sleep(20 * time.Millisecond)

	var got payload
	assert.ErrorIs(t, client.Get(ctx, "rm-1", &got), ErrCacheMiss)
	exists, err = client.Exists(ctx, "rm-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPrefixIsolatesKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	a := NewClient(rdb, "a:")
	b := NewClient(rdb, "b:")
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "shared", payload{ID: "from-a"}, time.Minute))

	var got payload
	assert.ErrorIs(t, b.Get(ctx, "shared", &got), ErrCacheMiss)
	require.NoError(t, a.Get(ctx, "shared", &got))
	assert.Equal(t, "from-a", got.ID)
}
