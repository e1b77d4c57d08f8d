package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()

	cfg := DefaultConfig()
	cfg.TTL = ttl
	store, err := New(cfg)
	require.NoError(t, err)
	return store
}

func TestPutGet(t *testing.T) {
	store := newStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v1")))

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), value)

	// overwrite
	require.NoError(t, store.Put(ctx, "k", []byte("v2")))
	value, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v2"), value)
}

func TestGet_MissingKey(t *testing.T) {
	store := newStore(t, time.Minute)

	value, ok, err := store.Get(context.Background(), "missing")
	require.NoError(t, err, "absence is not an error")
	require.False(t, ok)
	require.Nil(t, value)
}

func TestMultiGet_PreservesOrderAndLength(t *testing.T) {
	store := newStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", []byte("1")))
	require.NoError(t, store.Put(ctx, "c", []byte("3")))

	values, err := store.MultiGet(ctx, []string{"a", "b", "c", "b"})
	require.NoError(t, err)
	require.Len(t, values, 4)
	require.Equal(t, []byte("1"), values[0])
	require.Nil(t, values[1])
	require.Equal(t, []byte("3"), values[2])
	require.Nil(t, values[3])
}

func TestMultiGet_EmptyKeys(t *testing.T) {
	store := newStore(t, time.Minute)

	values, err := store.MultiGet(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestEvict_Idempotent(t *testing.T) {
	store := newStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v")))
	require.NoError(t, store.Evict(ctx, "k"))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	// evicting again is a no-op, not an error
	require.NoError(t, store.Evict(ctx, "k"))
}

func TestTTLExpiry(t *testing.T) {
	store := newStore(t, 30*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v")))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(80 * time.Millisecond)

	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok, "entry must expire after the TTL")
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero capacity", func(c *Config) { c.Capacity = 0 }, "Capacity"},
		{"zero shards", func(c *Config) { c.NumShards = 0 }, "NumShards"},
		{"zero ttl", func(c *Config) { c.TTL = 0 }, "TTL"},
		{"eviction percentage too high", func(c *Config) { c.EvictionPercentage = 101 }, "EvictionPercentage"},
		{"eviction percentage too low", func(c *Config) { c.EvictionPercentage = 0 }, "EvictionPercentage"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			_, err := New(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.field)
		})
	}

	_, err := New(DefaultConfig())
	require.NoError(t, err)
}
