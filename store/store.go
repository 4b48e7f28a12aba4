// Package store provides counter-store backends for gatekeep.
//
// The base contract is deliberately small, get and put with a TTL, so
// a backend can be an in-process map, a file, or Redis. The engine's
// strategies persist their counter records as opaque bytes against it.
//
// The base contract offers no cross-operation atomicity. A backend that
// can increment atomically should also implement Incrementer; the fixed
// window strategy detects it and gets exact counts under concurrency.
package store

import (
	"context"
	"time"
)

// Store is the counter-store contract consumed by the admission
// strategies.
type Store interface {
	// Get returns the value stored under key, or nil (with a nil error)
	// when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key. A positive ttl bounds the record's
	// lifetime so abandoned keys do not leak; implementations must honor
	// it at least approximately.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Incrementer is the optional atomic upgrade to Store.
//
// Increment adds one to the integer counter under key and returns the new
// value, creating the counter at 1 with the given ttl when absent. The
// whole operation is atomic with respect to concurrent Increment calls on
// the same key.
type Incrementer interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
