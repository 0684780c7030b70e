package state

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objgraph-labs/objgraph/internal/logger"
	objgraph "github.com/objgraph-labs/objgraph/pkg/objgraph/v1"
	objstate "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/state"
)

type config struct {
	Replicas int
	Labels   map[string]string
}

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	return NewSnapshotStore(nil, logger.NewNopLogger())
}

func TestStorePutAndGet(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put("cfg", &config{Replicas: 3, Labels: map[string]string{"env": "prod"}}))

	out, found := s.Get("cfg")
	require.True(t, found)
	got := out.(*config)
	assert.Equal(t, 3, got.Replicas)
	assert.Equal(t, "prod", got.Labels["env"])
}

func TestStoreGetMiss(t *testing.T) {
	s := newTestStore(t)
	_, found := s.Get("absent")
	assert.False(t, found)
}

func TestStorePutIsolatesCallerReferences(t *testing.T) {
	s := newTestStore(t)
	src := &config{Replicas: 3, Labels: map[string]string{"env": "prod"}}
	require.NoError(t, s.Put("cfg", src))

	// Mutating the original after Put must not affect the stored snapshot.
	src.Replicas = 99
	src.Labels["env"] = "dev"

	out, found := s.Get("cfg")
	require.True(t, found)
	got := out.(*config)
	assert.Equal(t, 3, got.Replicas)
	assert.Equal(t, "prod", got.Labels["env"])
}

func TestStoreGetReturnsIndependentCopies(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put("cfg", &config{Labels: map[string]string{"env": "prod"}}))

	first, _ := s.Get("cfg")
	first.(*config).Labels["env"] = "mutated"

	second, _ := s.Get("cfg")
	assert.Equal(t, "prod", second.(*config).Labels["env"])
}

func TestStoreKeys(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put("a", 1))
	require.NoError(t, s.Put("b", 2))
	assert.ElementsMatch(t, []string{"a", "b"}, s.Keys())
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put("cfg", 1))
	require.NoError(t, s.Delete("cfg"))
	_, found := s.Get("cfg")
	assert.False(t, found)

	assert.ErrorIs(t, s.Delete("cfg"), objstate.ErrKeyNotFound)
}

func TestStoreDiff(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put("cfg", &config{Replicas: 3}))

	result, err := s.Diff("cfg", &config{Replicas: 3})
	require.NoError(t, err)
	assert.True(t, result.AreEqual)

	result, err = s.Diff("cfg", &config{Replicas: 5})
	require.NoError(t, err)
	require.False(t, result.AreEqual)
	assert.Equal(t, "Replicas", result.Differences[0].Path)
}

func TestStoreDiffMissingKey(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Diff("absent", &config{})
	assert.ErrorIs(t, err, objstate.ErrKeyNotFound)
}

func TestStoreLoadReplacesContent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put("old", 1))

	src := map[string]interface{}{"a": &config{Replicas: 1}, "b": 2}
	require.NoError(t, s.Load(src))

	assert.ElementsMatch(t, []string{"a", "b"}, s.Keys())
	// Load deep-copies: mutating the source map's values must not leak in.
	src["a"].(*config).Replicas = 42
	out, _ := s.Get("a")
	assert.Equal(t, 1, out.(*config).Replicas)
}

func TestStoreHonorsLimits(t *testing.T) {
	opts := objgraph.DefaultOptions()
	opts.MaxObjectCount = 2
	s := NewSnapshotStore(opts, logger.NewNopLogger())

	big := make([]*config, 50)
	for i := range big {
		big[i] = &config{Replicas: i}
	}
	assert.Error(t, s.Put("big", big))
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := newTestStore(t)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			key := fmt.Sprintf("k%d", i%4)
			for j := 0; j < 50; j++ {
				_ = s.Put(key, &config{Replicas: j})
				s.Get(key)
				s.Keys()
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
