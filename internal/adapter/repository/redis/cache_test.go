package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), mr
}

func TestCacheRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "report", []byte("payload"), time.Minute))

	got, err := cache.Get(ctx, "report")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	require.NoError(t, cache.Delete(ctx, "report"))

	got, err = cache.Get(ctx, "report")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheMissingKeyIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewCache(client)

	got, err := cache.Get(context.Background(), "never-set")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheEntriesExpire(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "report", []byte("payload"), time.Minute))
	mr.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, "report")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIdempotencyFirstRequestLocksKey(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	// First caller takes the key.
	seen, cached, err := store.CheckAndSet(ctx, "req-1", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Nil(t, cached)

	// A retry of the same request finds the placeholder.
	seen, _, err = store.CheckAndSet(ctx, "req-1", nil, time.Minute)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	seen, _, err := store.CheckAndSet(ctx, "req-1", nil, time.Minute)
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, store.Update(ctx, "req-1", []byte(`{"id":"sale-1"}`), time.Minute))

	seen, cached, err := store.CheckAndSet(ctx, "req-1", nil, time.Minute)
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, []byte(`{"id":"sale-1"}`), cached)
}

func TestIdempotencyKeyExpires(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	seen, _, err := store.CheckAndSet(ctx, "req-1", []byte("done"), time.Minute)
	require.NoError(t, err)
	require.False(t, seen)

	mr.FastForward(2 * time.Minute)

	seen, _, err = store.CheckAndSet(ctx, "req-1", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, seen)
}
