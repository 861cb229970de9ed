package resultcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

func TestMemoryCache_ExpiryAndEviction(t *testing.T) {
	cache, err := NewMemoryCache(2)
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", nutrition.BatchResult{HorizonDays: 30}, time.Minute))
	got, ok, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 30, got.HorizonDays)

	now = now.Add(2 * time.Minute)
	_, ok, _ = cache.Get(ctx, "a")
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, "b", nutrition.BatchResult{}, 0))
	require.NoError(t, cache.Set(ctx, "c", nutrition.BatchResult{}, 0))
	require.NoError(t, cache.Set(ctx, "d", nutrition.BatchResult{}, 0))
	_, ok, _ = cache.Get(ctx, "b")
	require.False(t, ok)
	_, ok, _ = cache.Get(ctx, "d")
	require.True(t, ok)
}
