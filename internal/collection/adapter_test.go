package collection

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyShape(t *testing.T) {
	cases := []struct {
		value interface{}
		shape Shape
		ok    bool
	}{
		{[]int{}, ShapeSequence, true},
		{[2]int{}, ShapeArray, true},
		{map[string]int{}, ShapeMap, true},
		{map[string]struct{}{}, ShapeSet, true},
		{42, 0, false},
		{"s", 0, false},
		{struct{}{}, 0, false},
	}
	for _, tc := range cases {
		shape, ok := ClassifyShape(reflect.TypeOf(tc.value))
		assert.Equal(t, tc.ok, ok, "value %T", tc.value)
		if tc.ok {
			assert.Equal(t, tc.shape, shape, "value %T", tc.value)
		}
	}

	_, ok := ClassifyShape(nil)
	assert.False(t, ok)
}

func TestElementsPreservesIndexOrder(t *testing.T) {
	elems := Elements(reflect.ValueOf([]string{"a", "b", "c"}))
	require.Len(t, elems, 3)
	assert.Equal(t, "a", elems[0].String())
	assert.Equal(t, "c", elems[2].String())

	elems = Elements(reflect.ValueOf([2]int{7, 9}))
	require.Len(t, elems, 2)
	assert.Equal(t, int64(7), elems[0].Int())
}

func TestElementsYieldsSetKeys(t *testing.T) {
	set := map[string]struct{}{"x": {}, "y": {}}
	elems := Elements(reflect.ValueOf(set))
	require.Len(t, elems, 2)

	seen := map[string]bool{}
	for _, e := range elems {
		seen[e.String()] = true
	}
	assert.True(t, seen["x"])
	assert.True(t, seen["y"])
}

func TestElementsNonCollection(t *testing.T) {
	assert.Nil(t, Elements(reflect.ValueOf(42)))
	assert.Nil(t, Elements(reflect.Value{}))
}

func TestEntriesSortsStringKeys(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}
	entries := Entries(reflect.ValueOf(m))
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].Key.String())
	assert.Equal(t, "b", entries[1].Key.String())
	assert.Equal(t, "c", entries[2].Key.String())
	assert.Equal(t, int64(1), entries[0].Value.Int())
}

func TestEntriesSortsIntKeys(t *testing.T) {
	m := map[int]string{3: "c", 1: "a", 2: "b"}
	entries := Entries(reflect.ValueOf(m))
	require.Len(t, entries, 3)
	assert.Equal(t, int64(1), entries[0].Key.Int())
	assert.Equal(t, int64(3), entries[2].Key.Int())
}

func TestEntriesNonMap(t *testing.T) {
	assert.Nil(t, Entries(reflect.ValueOf([]int{1})))
	assert.Nil(t, Entries(reflect.Value{}))
}

func TestNewCompatibleSlice(t *testing.T) {
	type tags []string
	v := NewCompatible(reflect.TypeOf(tags{}), 3)
	require.Equal(t, reflect.Slice, v.Kind())
	assert.Equal(t, 3, v.Len())
	// The named type is preserved, not flattened to []string.
	assert.Equal(t, reflect.TypeOf(tags{}), v.Type())
}

func TestNewCompatibleMap(t *testing.T) {
	type index map[string]int
	v := NewCompatible(reflect.TypeOf(index{}), 4)
	require.Equal(t, reflect.Map, v.Kind())
	assert.Equal(t, reflect.TypeOf(index{}), v.Type())
}

func TestNewCompatibleArray(t *testing.T) {
	v := NewCompatible(reflect.TypeOf([3]int{}), 3)
	require.Equal(t, reflect.Array, v.Kind())
	assert.True(t, v.CanSet())
}
