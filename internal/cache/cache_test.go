package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"usof/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedPost struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		SetClient(nil)
		mr.Close()
	})
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()

	loads := 0
	load := func(dst *cachedPost) func() error {
		return func() error {
			loads++
			*dst = cachedPost{ID: 1, Title: "Hello"}
			return nil
		}
	}

	var first cachedPost
	require.NoError(t, Aside(ctx, PostKey(1), &first, time.Minute, load(&first)))
	assert.Equal(t, "Hello", first.Title)
	assert.True(t, mr.Exists("post:1"))

	var second cachedPost
	require.NoError(t, Aside(ctx, PostKey(1), &second, time.Minute, load(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads, "second read must be served from cache")
}

func TestAside_LoadErrorNotCached(t *testing.T) {
	mr := setupMiniRedis(t)
	boom := errors.New("not found")

	var dst cachedPost
	err := Aside(context.Background(), PostKey(2), &dst, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("post:2"))
}

func TestAside_WithoutRedis(t *testing.T) {
	SetClient(nil)
	called := false
	var dst cachedPost
	require.NoError(t, Aside(context.Background(), PostKey(3), &dst, time.Minute, func() error {
		called = true
		return nil
	}))
	assert.True(t, called)
}

func TestInvalidate(t *testing.T) {
	mr := setupMiniRedis(t)
	require.NoError(t, mr.Set(UserKey(4), "{}"))
	require.NoError(t, mr.Set(PostKey(4), "{}"))

	InvalidateUser(context.Background(), 4)
	InvalidatePost(context.Background(), 4)

	assert.False(t, mr.Exists("user:4"))
	assert.False(t, mr.Exists("post:4"))
}

func TestAside_TTLApplied(t *testing.T) {
	mr := setupMiniRedis(t)
	var dst cachedPost
	require.NoError(t, Aside(context.Background(), CategoryKey(5), &dst, CategoryTTL, func() error {
		dst = cachedPost{ID: 5}
		return nil
	}))
	assert.Equal(t, CategoryTTL, mr.TTL("category:5"))
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	ctx := context.Background()

	t.Run("Host And Port", func(t *testing.T) {
		c, err := Connect(ctx, mr.Addr())
		require.NoError(t, err)
		defer func() { _ = c.Close() }()
		assert.Equal(t, mr.Addr(), c.Options().Addr)
	})

	t.Run("URL", func(t *testing.T) {
		c, err := Connect(ctx, "redis://"+mr.Addr()+"/2")
		require.NoError(t, err)
		defer func() { _ = c.Close() }()
		assert.Equal(t, 2, c.Options().DB)
	})

	t.Run("Invalid URL", func(t *testing.T) {
		_, err := Connect(ctx, "redis://localhost:6379/not-a-db")
		assert.Error(t, err)
	})

	t.Run("Unreachable", func(t *testing.T) {
		down, err := miniredis.Run()
		require.NoError(t, err)
		addr := down.Addr()
		down.Close()

		_, err = Connect(ctx, addr)
		assert.Error(t, err)
	})
}

func TestInitRedis_FallsBackWithoutRedis(t *testing.T) {
	down, err := miniredis.Run()
	require.NoError(t, err)
	addr := down.Addr()
	down.Close()

	InitRedis(addr)
	assert.Nil(t, GetClient())
}

func TestKeyFamily(t *testing.T) {
	tests := map[string]string{
		PostKey(7):          "post",
		UserKey(3):          "user",
		CategoryKey(1):      "category",
		"rl:react:user:1":   "ratelimit",
		"session:abc":       "other",
		"no-separator-here": "other",
	}
	for key, want := range tests {
		assert.Equal(t, want, keyFamily(key), key)
	}
}

func TestErrorHook_CountsByFamily(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()

	before := promtest.ToFloat64(middleware.RedisErrors.WithLabelValues("post"))
	misses := promtest.ToFloat64(middleware.RedisErrors.WithLabelValues("user"))

	// A miss is not an error.
	_, err := client.Get(ctx, UserKey(1)).Result()
	require.ErrorIs(t, err, redis.Nil)

	mr.SetError("ERR simulated outage")
	_, err = client.Get(ctx, PostKey(1)).Result()
	require.Error(t, err)

	assert.Equal(t, before+1, promtest.ToFloat64(middleware.RedisErrors.WithLabelValues("post")))
	assert.Equal(t, misses, promtest.ToFloat64(middleware.RedisErrors.WithLabelValues("user")))
}
