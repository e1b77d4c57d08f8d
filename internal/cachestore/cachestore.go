// Package cachestore implements the userservice.Cache port on top of a
// sturdyc in-memory client: sharded storage, per-client default TTL, capacity
// based eviction.
package cachestore

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the sturdyc client parameters.
type Config struct {
	// Capacity is the maximum number of entries the cache holds before the
	// eviction percentage kicks in. Must be greater than 0.
	Capacity int

	// NumShards spreads entries over independent shards for concurrent
	// access. Must be greater than 0.
	NumShards int

	// TTL is the default time-to-live applied to every entry.
	// Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage is how much of a full shard gets evicted at once,
	// 1-100.
	EvictionPercentage int
}

// DefaultConfig returns settings suitable for most deployments.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          64,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "cachestore config error in field " + e.Field + ": " + e.Message
}

// Store adapts a sturdyc client to the cache contract the services expect:
// byte-valued entries, default TTL on put, positional multi-get, idempotent
// evict. The in-process client cannot become unavailable, so every method
// reports a nil error; callers still treat errors as a distinct failure from
// absence, which keeps the contract honest for a future out-of-process
// backend.
type Store struct {
	client *sturdyc.Client[[]byte]
}

// New builds a Store from cfg.
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := sturdyc.New[[]byte](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage)
	return &Store{client: client}, nil
}

// Put stores value under key with the default TTL, overwriting any existing
// entry.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	s.client.Set(key, value)
	return nil
}

// Get returns the value and whether the key resolved. Missing and expired
// keys are ok=false, never an error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

// MultiGet resolves every key in one pass. The result is positionally aligned
// with keys and has the same length; absent entries are nil.
func (s *Store) MultiGet(ctx context.Context, keys []string) ([][]byte, error) {
	values := make([][]byte, len(keys))
	for i, key := range keys {
		if value, ok := s.client.Get(key); ok {
			values[i] = value
		}
	}
	return values, nil
}

// Evict removes key; evicting an absent key is a no-op.
func (s *Store) Evict(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// Size returns the number of live entries, used by readiness reporting and
// tests.
func (s *Store) Size() int {
	return s.client.Size()
}
