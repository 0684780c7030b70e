package clone

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objgraph-labs/objgraph/internal/logger"
	v1 "github.com/objgraph-labs/objgraph/pkg/objgraph/v1"
	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
)

type address struct {
	City string
	Zip  string
}

type person struct {
	Name    string
	Age     int
	Home    *address
	Tags    []string
	Scores  map[string]float64
	private string
}

type node struct {
	Value int
	Next  *node
}

func runClone(t *testing.T, value interface{}, opts *v1.Options) (interface{}, error) {
	t.Helper()
	c := New(value, opts, logger.NewNopLogger(), nil)
	return c.Run()
}

func TestCloneNil(t *testing.T) {
	out, err := runClone(t, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestClonePrimitives(t *testing.T) {
	out, err := runClone(t, 42, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	out, err = runClone(t, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestCloneStructIndependence(t *testing.T) {
	src := &person{
		Name:   "Alice",
		Age:    30,
		Home:   &address{City: "Springfield", Zip: "12345"},
		Tags:   []string{"a", "b"},
		Scores: map[string]float64{"math": 91.5},
	}
	out, err := runClone(t, src, nil)
	require.NoError(t, err)

	clone, ok := out.(*person)
	require.True(t, ok)
	require.NotSame(t, src, clone)
	require.NotSame(t, src.Home, clone.Home)
	assert.Equal(t, "Alice", clone.Name)
	assert.Equal(t, "Springfield", clone.Home.City)
	assert.Equal(t, []string{"a", "b"}, clone.Tags)
	assert.Equal(t, map[string]float64{"math": 91.5}, clone.Scores)

	// Mutating the source must not touch the clone.
	src.Home.City = "Shelbyville"
	src.Tags[0] = "z"
	src.Scores["math"] = 0
	assert.Equal(t, "Springfield", clone.Home.City)
	assert.Equal(t, "a", clone.Tags[0])
	assert.Equal(t, 91.5, clone.Scores["math"])
}

func TestCloneAliasingPreserved(t *testing.T) {
	shared := &address{City: "Springfield"}
	type pair struct {
		First  *address
		Second *address
	}
	out, err := runClone(t, &pair{First: shared, Second: shared}, nil)
	require.NoError(t, err)

	clone := out.(*pair)
	require.NotSame(t, shared, clone.First)
	assert.Same(t, clone.First, clone.Second)
}

func TestCloneCycle(t *testing.T) {
	a := &node{Value: 1}
	b := &node{Value: 2, Next: a}
	a.Next = b

	out, err := runClone(t, a, nil)
	require.NoError(t, err)

	clone := out.(*node)
	require.NotSame(t, a, clone)
	assert.Equal(t, 1, clone.Value)
	assert.Equal(t, 2, clone.Next.Value)
	// The ring closes onto the clone, not the source.
	assert.Same(t, clone, clone.Next.Next)
}

func TestCloneSelfReference(t *testing.T) {
	a := &node{Value: 7}
	a.Next = a

	out, err := runClone(t, a, nil)
	require.NoError(t, err)
	clone := out.(*node)
	require.NotSame(t, a, clone)
	assert.Same(t, clone, clone.Next)
}

func TestCloneNilMembers(t *testing.T) {
	src := &person{Name: "Alice"}
	out, err := runClone(t, src, nil)
	require.NoError(t, err)

	clone := out.(*person)
	assert.Nil(t, clone.Home)
	assert.Nil(t, clone.Tags)
	assert.Nil(t, clone.Scores)
}

func TestCloneUnexportedMembersStayZero(t *testing.T) {
	src := person{Name: "Alice", private: "secret"}
	out, err := runClone(t, src, nil)
	require.NoError(t, err)

	clone := out.(person)
	assert.Equal(t, "Alice", clone.Name)
	assert.Equal(t, "", clone.private)
}

type document struct {
	Title    string
	Revision int `objgraph:"readonly"`
	Internal int `objgraph:"-"`
}

func TestCloneSkipsReadOnlyAndTaggedMembers(t *testing.T) {
	out, err := runClone(t, document{Title: "spec", Revision: 3, Internal: 9}, nil)
	require.NoError(t, err)

	clone := out.(document)
	assert.Equal(t, "spec", clone.Title)
	assert.Equal(t, 0, clone.Revision)
	assert.Equal(t, 0, clone.Internal)
}

func TestCloneExcludedMembers(t *testing.T) {
	opts := v1.DefaultOptions()
	opts.ExcludedMembers = map[string]struct{}{"Age": {}}
	out, err := runClone(t, person{Name: "Alice", Age: 30}, opts)
	require.NoError(t, err)

	clone := out.(person)
	assert.Equal(t, "Alice", clone.Name)
	assert.Equal(t, 0, clone.Age)
}

func TestCloneInterfaceMembers(t *testing.T) {
	type box struct {
		Payload interface{}
	}
	src := box{Payload: &address{City: "Springfield"}}
	out, err := runClone(t, src, nil)
	require.NoError(t, err)

	clone := out.(box)
	inner, ok := clone.Payload.(*address)
	require.True(t, ok)
	require.NotSame(t, src.Payload, inner)
	assert.Equal(t, "Springfield", inner.City)
}

func TestCloneNilInterfaceMember(t *testing.T) {
	type box struct {
		Payload interface{}
	}
	out, err := runClone(t, box{}, nil)
	require.NoError(t, err)
	assert.Nil(t, out.(box).Payload)
}

func TestCloneArrays(t *testing.T) {
	src := [3]*address{{City: "A"}, {City: "B"}, nil}
	out, err := runClone(t, src, nil)
	require.NoError(t, err)

	clone := out.([3]*address)
	require.NotSame(t, src[0], clone[0])
	assert.Equal(t, "A", clone[0].City)
	assert.Equal(t, "B", clone[1].City)
	assert.Nil(t, clone[2])
}

func TestCloneNamedCollectionTypes(t *testing.T) {
	type tags []string
	type index map[string]int

	out, err := runClone(t, tags{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, tags{"a", "b"}, out)

	out, err = runClone(t, index{"a": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, index{"a": 1}, out)
}

func TestCloneNestedMaps(t *testing.T) {
	src := map[string]map[string]int{
		"outer": {"inner": 42},
	}
	out, err := runClone(t, src, nil)
	require.NoError(t, err)

	clone := out.(map[string]map[string]int)
	assert.Equal(t, 42, clone["outer"]["inner"])
	src["outer"]["inner"] = 0
	assert.Equal(t, 42, clone["outer"]["inner"])
}

func TestCloneTimeAsLeaf(t *testing.T) {
	instant := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	out, err := runClone(t, instant, nil)
	require.NoError(t, err)
	assert.True(t, instant.Equal(out.(time.Time)))
}

func TestCloneFunctionReferencePassesThrough(t *testing.T) {
	type handler struct {
		Fn func() int
	}
	src := handler{Fn: func() int { return 7 }}
	out, err := runClone(t, src, nil)
	require.NoError(t, err)

	clone := out.(handler)
	require.NotNil(t, clone.Fn)
	assert.Equal(t, 7, clone.Fn())
}

func TestCloneMaxDepthFatal(t *testing.T) {
	opts := v1.DefaultOptions()
	opts.MaxDepth = 4
	deep := &node{Value: 0}
	cur := deep
	for i := 1; i < 32; i++ {
		cur.Next = &node{Value: i}
		cur = cur.Next
	}

	_, err := runClone(t, deep, opts)
	require.Error(t, err)
	var depthErr *objerrors.MaxDepthExceededError
	assert.True(t, errors.As(err, &depthErr))
}

func TestCloneMaxObjectCountFatal(t *testing.T) {
	opts := v1.DefaultOptions()
	opts.MaxObjectCount = 5
	src := make([]*address, 100)
	for i := range src {
		src[i] = &address{City: "X"}
	}

	_, err := runClone(t, src, opts)
	require.Error(t, err)
	assert.True(t, objerrors.IsLimitExceeded(err))
}

func TestCloneStepBatches(t *testing.T) {
	src := &person{Name: "Alice", Tags: []string{"a", "b", "c"}}
	c := New(src, nil, logger.NewNopLogger(), nil)

	done := false
	var err error
	for i := 0; !done && i < 1000; i++ {
		done, err = c.Step(1)
		require.NoError(t, err)
	}
	require.True(t, done)

	clone := c.Value().(*person)
	assert.Equal(t, "Alice", clone.Name)
	assert.Equal(t, []string{"a", "b", "c"}, clone.Tags)
	assert.Greater(t, c.ObjectsCloned(), int64(0))
}
