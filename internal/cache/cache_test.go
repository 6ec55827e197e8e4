package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/foodlens/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("https://world.openfoodfacts.org/api/v0/product/3017620422003.json")
	b := CacheKey("https://world.openfoodfacts.org/api/v0/product/3017620422003.json")
	c := CacheKey("https://world.openfoodfacts.org/api/v0/product/5449000000996.json")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "foodlens:v1:"))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestDiskCache(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("https://example.org/a")

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte(`{"status":1}`), 0))
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, `{"status":1}`, string(got))

	require.NoError(t, c.Delete(ctx, key))
	require.NoError(t, c.Delete(ctx, key), "deleting a missing key is not an error")

	require.NoError(t, c.Set(ctx, key, []byte("x"), 0))
	require.NoError(t, c.Clear(ctx))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestDiskCache_ExpiredEntryRemoved(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), -time.Second))

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	_, err := os.Stat(filepath.Join(dir, "k.cache"))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.cache"), []byte("not json"), 0o644))

	_, ok := NewDiskCache(dir, time.Hour).Get(ctx, "k")
	assert.False(t, ok)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Populate disk through a first instance, then read through a fresh one
	first := NewLayeredCache(time.Minute, dir, time.Hour)
	require.NoError(t, first.Set(ctx, "k", []byte("v"), 0))

	second := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := second.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	mem := second.memory.(*MemoryCache)
	assert.Equal(t, 1, mem.Len())

	require.NoError(t, second.Delete(ctx, "k"))
	_, ok = second.Get(ctx, "k")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	c, err := New(model.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, c)

	tests := []struct {
		backend string
		want    any
	}{
		{"", &LayeredCache{}},
		{"layered", &LayeredCache{}},
		{"memory", &MemoryCache{}},
		{"disk", &DiskCache{}},
	}
	for _, tt := range tests {
		c, err := New(model.CacheConfig{Enabled: true, Backend: tt.backend, Dir: dir, MemoryTTL: time.Minute, DiskTTL: time.Hour})
		require.NoError(t, err, tt.backend)
		assert.IsType(t, tt.want, c, tt.backend)
	}

	_, err = New(model.CacheConfig{Enabled: true, Backend: "memcached"})
	assert.Error(t, err)

	_, err = New(model.CacheConfig{Enabled: true, Backend: "redis"})
	assert.Error(t, err, "redis without URL")

	_, err = New(model.CacheConfig{Enabled: true, Backend: "redis", RedisURL: "not-a-url://"})
	assert.Error(t, err)
}

func TestRedisCache_Integration(t *testing.T) {
	url := os.Getenv("FOODLENS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FOODLENS_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(url, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	key := CacheKey("redis-integration")
	require.NoError(t, c.Set(ctx, key, []byte("v"), 0))

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Clear(ctx))
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
}
