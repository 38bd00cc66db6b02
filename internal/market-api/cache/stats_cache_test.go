package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/prediction-market-poc/internal/market-api/store"
)

func newTestCache(t *testing.T) (*StatsCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStatsCache(rdb, 10*time.Second), mr
}

func TestStatsCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ver, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, ver)

	want := store.PlatformStats{TotalBets: 3, TotalVolume: 1.8, ActiveEvents: 1, ActiveUsers: 2}
	require.NoError(t, c.Set(ctx, ver, want))
	assert.Equal(t, 10*time.Second, mr.TTL(keyStats(0)))

	got, _, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, c.Invalidate(ctx))
	_, ver, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), ver)
}

func TestStatsCacheSetAfterInvalidateIsNotServed(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	// miss, cálculo em andamento, e uma escrita invalida antes do Set
	_, ver, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, ver, store.PlatformStats{TotalBets: 3}))

	_, ver, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, ver, store.PlatformStats{TotalBets: 4}))
	got, _, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, got.TotalBets)
}

func TestStatsCacheExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, store.PlatformStats{TotalBets: 1}))
	mr.FastForward(11 * time.Second)

	_, _, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatsCacheRedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, _, _, err := c.Get(context.Background())
	assert.Error(t, err)
}
