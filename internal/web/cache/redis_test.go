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

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	// Create a mock Redis server
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Create Redis client
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	// Create cache
	cache := NewRedisCacheWithClient(client, DefaultCacheConfig())
	return cache, mr
}

func TestNewRedisCacheWithConfig(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	config := RedisConfig{
		Addr:        mr.Addr(),
		Password:    "",
		DB:          0,
		CacheConfig: DefaultCacheConfig(),
	}

	cache, err := NewRedisCacheWithConfig(config)
	require.NoError(t, err)
	assert.NotNil(t, cache)
	defer cache.Close()
}

func TestNewRedisCacheWithConfig_ConnectionError(t *testing.T) {
	config := RedisConfig{
		Addr:        "localhost:99999", // Invalid port
		Password:    "",
		DB:          0,
		CacheConfig: DefaultCacheConfig(),
	}

	_, err := NewRedisCacheWithConfig(config)
	assert.Error(t, err)
}

func TestRedisCache_SetAndGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	key := "test-key"
	value := []byte("test-value")

	// Set value
	err := cache.Set(ctx, key, value, 1*time.Minute)
	require.NoError(t, err)

	// Get value
	retrieved, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, value, retrieved)
}

func TestRedisCache_GetMiss(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()

	_, err := cache.Get(context.Background(), "absent")
	assert.True(t, IsCacheMiss(err))
}

func TestRedisCache_KeyPrefixAndTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()

	require.NoError(t, cache.Set(context.Background(), "GET:/place/City", []byte("x"), 0))

	assert.True(t, mr.Exists("ontogate:GET:/place/City"))
	assert.Equal(t, DefaultCacheConfig().DefaultTTL, mr.TTL("ontogate:GET:/place/City"))

	mr.FastForward(DefaultCacheConfig().DefaultTTL + time.Second)
	_, err := cache.Get(context.Background(), "GET:/place/City")
	assert.True(t, IsCacheMiss(err))
}

func TestRedisCache_DeletePrefix(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "GET:/place/City?page=1", []byte("1"), time.Minute))
	require.NoError(t, cache.Set(ctx, "GET:/place/City/_schema", []byte("2"), time.Minute))
	require.NoError(t, cache.Set(ctx, "GET:/person/Person", []byte("3"), time.Minute))
	require.NoError(t, mr.Set("other:GET:/place/City", "foreign"))

	removed, err := cache.DeletePrefix(ctx, "GET:/place/City")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.True(t, mr.Exists("ontogate:GET:/person/Person"))
	assert.True(t, mr.Exists("other:GET:/place/City"))
}

func TestRedisCache_DeletePrefixEscapesGlob(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "GET:/a?x=1", []byte("1"), time.Minute))
	require.NoError(t, cache.Set(ctx, "GET:/ab", []byte("2"), time.Minute))

	removed, err := cache.DeletePrefix(ctx, "GET:/a?")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.True(t, mr.Exists("ontogate:GET:/ab"))
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, cache.Delete(ctx, "k"))

	_, err := cache.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestRedisCache_Ping(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer cache.Close()

	assert.NoError(t, cache.Ping(context.Background()))
	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}
