package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/segmentlens/internal/cache"
)

func TestMemoryCache_SetGet(t *testing.T) {
	mc := cache.NewMemoryCache(time.Minute, time.Minute)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), 0))

	val, found, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	mc := cache.NewMemoryCache(time.Minute, time.Minute)
	ctx := context.Background()

	src := []byte("abc")
	require.NoError(t, mc.Set(ctx, "k", src, 0))
	src[0] = 'z'

	val, _, _ := mc.Get(ctx, "k")
	val[1] = 'z'

	again, _, _ := mc.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryCache_Expiry(t *testing.T) {
	mc := cache.NewMemoryCache(time.Minute, time.Minute)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "short", []byte("v"), 20*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	_, found, err := mc.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_Delete(t *testing.T) {
	mc := cache.NewMemoryCache(time.Minute, time.Minute)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, mc.Delete(ctx, "k"))
	require.NoError(t, mc.Delete(ctx, "never-existed"))

	_, found, _ := mc.Get(ctx, "k")
	assert.False(t, found)
}

func TestMemoryCache_IncrWithExpiry(t *testing.T) {
	mc := cache.NewMemoryCache(time.Minute, time.Minute)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := mc.IncrWithExpiry(ctx, "ratelimit:x", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMemoryCache_IncrWithExpiry_Concurrent(t *testing.T) {
	mc := cache.NewMemoryCache(time.Minute, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = mc.IncrWithExpiry(ctx, "ratelimit:c", time.Minute)
		}()
	}
	wg.Wait()

	got, err := mc.IncrWithExpiry(ctx, "ratelimit:c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(51), got)
}

func TestMemoryCache_IncrWithExpiry_WindowResets(t *testing.T) {
	mc := cache.NewMemoryCache(time.Minute, time.Minute)
	ctx := context.Background()

	_, err := mc.IncrWithExpiry(ctx, "ratelimit:w", 20*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	got, err := mc.IncrWithExpiry(ctx, "ratelimit:w", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
