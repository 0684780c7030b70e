package state

import (
	"errors"
)

// ErrKeyNotFound indicates that a requested key does not exist in the snapshot store.
var ErrKeyNotFound = errors.New("key not found in snapshot store")

// SnapshotReader defines the read-only interface for accessing stored snapshots.
// Implementations must be thread-safe.
//
// Snapshots returned by Get are fully independent deep copies: mutating the
// returned value never affects the stored snapshot, and mutating the original
// graph after Put never affects what Get returns.
type SnapshotReader interface {
	// Get retrieves an independent copy of the snapshot stored under key.
	// It returns the copy and true if the key exists, otherwise nil and false.
	Get(key string) (interface{}, bool)

	// Keys returns the keys of all stored snapshots. Order is not guaranteed.
	Keys() []string
}

// Store defines the interface for a volatile, in-memory snapshot store.
// "Snapshot" here means an in-memory independent copy, not durable storage.
// Implementations must be thread-safe.
type Store interface {
	SnapshotReader

	// Put takes a deep snapshot of value and stores it under key, overwriting
	// any existing snapshot. The stored snapshot shares no mutable state with
	// value. Returns an error if the snapshot could not be taken.
	Put(key string, value interface{}) error

	// Delete removes the snapshot stored under key.
	// It returns ErrKeyNotFound if the key does not exist.
	Delete(key string) error

	// Close releases any resources held by the store.
	Close() error
}
