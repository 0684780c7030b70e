// Package state provides a volatile, in-memory snapshot store built on the
// clone engine. Values are deep-copied on the way in and on the way out, so
// a stored snapshot can never be mutated through references the caller holds,
// and a retrieved snapshot can never mutate the stored one.
package state

import (
	"maps"
	"sync"

	"github.com/objgraph-labs/objgraph/internal/clone"
	"github.com/objgraph-labs/objgraph/internal/compare"
	objgraph "github.com/objgraph-labs/objgraph/pkg/objgraph/v1"
	objlog "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/log"
	objstate "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/state"
)

// SnapshotStore implements the public state.Store interface using a standard
// Go map protected by a sync.RWMutex. Deep copying happens outside the lock
// on both Put and Get: only the map access itself is serialized, so one
// caller cloning a large graph does not block readers of other keys.
type SnapshotStore struct {
	data map[string]interface{}
	opts *objgraph.Options
	log  objlog.Logger
	mu   sync.RWMutex
}

// NewSnapshotStore creates an empty store. Snapshots taken by the store use
// opts (nil means defaults). The logger may not be nil.
func NewSnapshotStore(opts *objgraph.Options, log objlog.Logger) *SnapshotStore {
	if log == nil {
		panic("SnapshotStore requires a non-nil logger")
	}
	if opts == nil {
		opts = objgraph.DefaultOptions()
	}
	return &SnapshotStore{
		data: make(map[string]interface{}),
		opts: opts.Clone(),
		log:  log.With("component", "SnapshotStore"),
	}
}

// Put deep-copies value and stores the copy under key. The copy is taken
// before the lock, so a slow clone never stalls readers.
func (s *SnapshotStore) Put(key string, value interface{}) error {
	snap, err := clone.New(value, s.opts, s.log, nil).Run()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = snap
	return nil
}

// Get retrieves an independent copy of the snapshot stored under key.
// Copy failures degrade to a miss rather than handing out a shared reference.
func (s *SnapshotStore) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	val, exists := s.data[key]
	s.mu.RUnlock()
	if !exists {
		return nil, false
	}
	snap, err := clone.New(val, s.opts, s.log, nil).Run()
	if err != nil {
		s.log.Errorf("failed to copy snapshot for key '%s': %v", key, err)
		return nil, false
	}
	return snap, true
}

// Keys returns the keys of all stored snapshots. Order is not guaranteed.
func (s *SnapshotStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// Delete removes the snapshot stored under key.
// Returns ErrKeyNotFound if the key does not exist.
func (s *SnapshotStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; !exists {
		return objstate.ErrKeyNotFound
	}
	delete(s.data, key)
	return nil
}

// Diff compares the snapshot stored under key against value and returns the
// structural differences. It is the store-level primitive behind
// "has this object changed since I snapshotted it". Returns ErrKeyNotFound
// when no snapshot exists for key.
func (s *SnapshotStore) Diff(key string, value interface{}) (*objgraph.ComparisonResult, error) {
	s.mu.RLock()
	stored, exists := s.data[key]
	s.mu.RUnlock()
	if !exists {
		return nil, objstate.ErrKeyNotFound
	}
	// The stored snapshot is never handed to the comparison's caller, and the
	// comparison never mutates either side, so no defensive copy is needed.
	return compare.New(stored, value, s.opts, s.log).Run()
}

// Load replaces the entire store content. Each value is deep-copied; a copy
// failure aborts the load with the store unchanged.
func (s *SnapshotStore) Load(data map[string]interface{}) error {
	fresh := make(map[string]interface{}, len(data))
	for k, v := range maps.Clone(data) {
		snap, err := clone.New(v, s.opts, s.log, nil).Run()
		if err != nil {
			return err
		}
		fresh[k] = snap
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = fresh
	return nil
}

// Close is a no-op; the store holds no external resources.
func (s *SnapshotStore) Close() error {
	return nil
}

// Compile-time check that SnapshotStore implements the public store interface.
var _ objstate.Store = (*SnapshotStore)(nil)
