package userservice

import (
	"context"

	"github.com/google/uuid"
)

// userCacheKeyPrefix namespaces aggregate snapshots; every put/get/evict for a
// given user id must go through UserCacheKey so the key stays identical.
const userCacheKeyPrefix = "user:with:cards:"

// UserCacheKey returns the cache key of a user aggregate snapshot.
func UserCacheKey(id uuid.UUID) string {
	return userCacheKeyPrefix + id.String()
}

// Cache is the key-value store the services invalidate and read through.
// Values are opaque serialized snapshots. Absence is never an error: Get
// reports it through ok, MultiGet through nil entries. Implementations apply
// a single configured default TTL to every Put.
type Cache interface {
	// Put stores value under key with the default TTL, overwriting any
	// existing entry.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the stored value, ok=false when the key is missing or
	// expired. An error means the cache itself failed, not that the key is
	// absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// MultiGet resolves the whole batch at once. The result is positionally
	// aligned with keys and always has the same length; missing entries are
	// nil. Either every key resolves (with per-key absence) or an error is
	// returned for the batch.
	MultiGet(ctx context.Context, keys []string) ([][]byte, error)

	// Evict removes key. Evicting an absent key is a no-op.
	Evict(ctx context.Context, key string) error
}
