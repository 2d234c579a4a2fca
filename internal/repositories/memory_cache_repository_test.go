package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRepository_GetSetDel(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheRepository()

	_, err := cache.Get(ctx, "setting.app_name")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "setting.app_name", []byte(`"School"`), time.Hour))
	val, err := cache.Get(ctx, "setting.app_name")
	require.NoError(t, err)
	assert.Equal(t, `"School"`, val)

	require.NoError(t, cache.Del(ctx, "setting.app_name"))
	_, err = cache.Get(ctx, "setting.app_name")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheRepository()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "k", "v", time.Hour))
	now = now.Add(59 * time.Minute)
	_, err := cache.Get(ctx, "k")
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss, "запись должна истечь через час")
}

func TestMemoryCacheRepository_IncrAndExpire(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheRepository()

	n, err := cache.Incr(ctx, "login_attempts:a@b.c")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, _ = cache.Incr(ctx, "login_attempts:a@b.c")
	assert.Equal(t, int64(2), n)

	ok, err := cache.Expire(ctx, "login_attempts:a@b.c", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = cache.Expire(ctx, "missing", time.Minute)
	assert.False(t, ok)
}
