package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Asset string  `json:"asset"`
	Price float64 `json:"price"`
}

func TestMemoryCacheTypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "stats:mangrove", point{Asset: "mangrove", Price: 21.5}, time.Minute))
	var got point
	require.NoError(t, mc.Get(ctx, "stats:mangrove", &got))
	assert.Equal(t, point{Asset: "mangrove", Price: 21.5}, got)

	var missing point
	assert.ErrorIs(t, mc.Get(ctx, "stats:peat", &missing), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()
	now := time.Now()
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "k", "v", time.Second))
	now = now.Add(2 * time.Second)
	var s string
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	now := time.Now()
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "a", 1, time.Hour))
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Hour))
	now = now.Add(time.Second)
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "c", 3, time.Hour))

	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()
	for _, k := range []string{"analytics:stats:a", "analytics:seasonal:a", "orders:1"} {
		require.NoError(t, mc.Set(ctx, k, k, time.Hour))
	}
	require.NoError(t, mc.DeleteByPattern(ctx, BuildPattern("analytics")))
	assert.Equal(t, 1, mc.Len())
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()
	calls := 0
	load := func(context.Context) (point, error) {
		calls++
		return point{Asset: "kelp", Price: 3}, nil
	}

	v, hit, err := GetOrLoad(ctx, mc, "k", time.Minute, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "kelp", v.Asset)

	v, hit, err = GetOrLoad(ctx, mc, "k", time.Minute, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, calls)

	_, _, err = GetOrLoad(ctx, mc, "bad", time.Minute, func(context.Context) (point, error) {
		return point{}, errors.New("boom")
	})
	assert.Error(t, err)

	v, hit, err = GetOrLoad[point](ctx, nil, "k", time.Minute, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "analytics:stats:mangrove:42", GenerateKeyWithParams("analytics", "stats", "mangrove", 42))
}
