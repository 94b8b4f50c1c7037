package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-volunteers/internal/models"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCache(client, 30*time.Second, nil), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	records := []models.Volunteer{
		{ID: "vol001", Name: "Alice Wonderland", Email: "alice@example.com", SerialNumber: 1},
	}
	cache.Set(ctx, "alice", records)

	got, ok := cache.Get(ctx, "alice")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "vol001", got[0].ID)
}

func TestCacheKeyNormalization(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	cache.Set(ctx, "Alice", []models.Volunteer{{ID: "vol001"}})

	// Case and surrounding whitespace fold into the same key.
	got, ok := cache.Get(ctx, "  alice ")
	require.True(t, ok)
	assert.Equal(t, "vol001", got[0].ID)
}

func TestCacheMiss(t *testing.T) {
	cache, _ := setupCache(t)

	_, ok := cache.Get(context.Background(), "nobody")
	assert.False(t, ok)
}

func TestCacheEntryExpires(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	cache.Set(ctx, "alice", []models.Volunteer{{ID: "vol001"}})

	mr.FastForward(31 * time.Second)

	_, ok := cache.Get(ctx, "alice")
	assert.False(t, ok)
}

func TestCacheDropsCorruptEntry(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(searchKey("alice"), "not json"))

	_, ok := cache.Get(ctx, "alice")
	assert.False(t, ok)
	// The poisoned key is removed so the next search repopulates it.
	assert.False(t, mr.Exists(searchKey("alice")))
}

func TestInvalidateAllClearsSearchKeys(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	cache.Set(ctx, "alice", []models.Volunteer{{ID: "vol001"}})
	cache.Set(ctx, "bob", []models.Volunteer{{ID: "vol002"}})
	require.NoError(t, mr.Set("unrelated_key", "stays"))

	cache.InvalidateAll(ctx)

	_, ok := cache.Get(ctx, "alice")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "bob")
	assert.False(t, ok)
	assert.True(t, mr.Exists("unrelated_key"))
}
