package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afinadao/membership/internal/config"
)

type testStruct struct {
	Name string
	Age  int
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		Address: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := testStruct{Name: "Alice", Age: 30}
	require.NoError(t, cache.Set(ctx, "user:1", expected, time.Minute))

	var actual testStruct
	found, err := cache.Get(ctx, "user:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out testStruct
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", testStruct{Name: "Bob"}, time.Second))
	mr.FastForward(2 * time.Second)

	var out testStruct
	found, err := cache.Get(ctx, "short", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", testStruct{Name: "C"}, time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "k"))

	var out testStruct
	found, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTake(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "once", testStruct{Name: "D", Age: 1}, time.Minute))

	var out testStruct
	found, err := cache.Take(ctx, "once", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "D", out.Name)

	found, err = cache.Take(ctx, "once", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetKeepTTL(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	ok, err := cache.SetKeepTTL(ctx, "missing", testStruct{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "req", testStruct{Name: "old"}, time.Minute))
	ok, err = cache.SetKeepTTL(ctx, "req", testStruct{Name: "new"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("req"))

	var out testStruct
	_, err = cache.Get(ctx, "req", &out)
	require.NoError(t, err)
	assert.Equal(t, "new", out.Name)
}

func TestIncr(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := cache.Incr(ctx, "rl:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	assert.Equal(t, time.Minute, mr.TTL("rl:1.2.3.4"))

	mr.FastForward(time.Minute + time.Second)
	n, err := cache.Incr(ctx, "rl:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
