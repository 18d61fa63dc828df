package state

import "context"

// Store is the durable key-value store shared by all bot processes,
// organized into named collections. It is the single source of truth for
// pending orders and open positions: in-memory caches (like the monitor's
// watch-set) are advisory and must be re-checked against the store after any
// multi-step sequence.
//
// The store serializes concurrent operations on the same collection/key
// pair; callers need no additional locking as long as writers touch disjoint
// keys.
type Store interface {
	// Set writes value under collection/key, overwriting any previous value.
	Set(ctx context.Context, collection, key string, value []byte) error

	// Get returns the value for collection/key, or (nil, nil) when absent.
	Get(ctx context.Context, collection, key string) ([]byte, error)

	// Delete removes collection/key. Deleting a missing key is not an error.
	Delete(ctx context.Context, collection, key string) error

	// Collection returns every key/value in the collection.
	Collection(ctx context.Context, collection string) (map[string][]byte, error)
}
