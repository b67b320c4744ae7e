package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchQueryCachesValue(t *testing.T) {
	ctx := context.Background()
	cache := NewQueryCache(NewMemoryBackend(0), time.Minute)

	calls := 0
	load := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	first, err := FetchQuery(ctx, cache, "k", load)
	require.NoError(t, err)
	second, err := FetchQuery(ctx, cache, "k", load)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestFetchQueryDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	cache := NewQueryCache(NewMemoryBackend(0), time.Minute)

	boom := errors.New("boom")
	_, err := FetchQuery(ctx, cache, "k", func(ctx context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	size, _ := cache.Size(ctx)
	assert.Equal(t, 0, size)

	v, err := FetchQuery(ctx, cache, "k", func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestMemoryBackendExpiry(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(0)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	require.NoError(t, b.Set(ctx, "k", []byte("v"), time.Second))

	_, ok, _ := b.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = b.Get(ctx, "k")
	assert.False(t, ok)

	size, _ := b.Size(ctx)
	assert.Equal(t, 1, size)

	b.cleanup()
	size, _ = b.Size(ctx)
	assert.Equal(t, 0, size)
}

func TestQueryCacheInvalidateAndClear(t *testing.T) {
	ctx := context.Background()
	cache := NewQueryCache(NewMemoryBackend(0), time.Minute)

	require.NoError(t, cache.Put(ctx, "a", 1))
	require.NoError(t, cache.Put(ctx, "b", 2))

	require.NoError(t, cache.Invalidate(ctx, "a"))
	var v int
	ok, err := cache.Lookup(ctx, "a", &v)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Clear(ctx))
	size, _ := cache.Size(ctx)
	assert.Equal(t, 0, size)
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "prediction:123", QueryKey("prediction", 123))
	assert.Equal(t, "liveFixtures", QueryKey(LiveFixturesKey))
}

func TestGenerateCacheKeyStable(t *testing.T) {
	params := map[string]int{"home": 1, "away": 2}
	assert.Equal(t, GenerateCacheKey("h2h", params), GenerateCacheKey("h2h", params))
	assert.NotEqual(t, GenerateCacheKey("h2h", params), GenerateCacheKey("h2h", map[string]int{"home": 2, "away": 1}))
}
