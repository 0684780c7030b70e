package paramutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOptionalString(t *testing.T) {
	v, found, err := GetOptionalString(map[string]interface{}{"key": "value"}, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", v)

	_, found, err = GetOptionalString(map[string]interface{}{}, "key")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = GetOptionalString(map[string]interface{}{"key": 42}, "key")
	assert.Error(t, err)
}

func TestGetOptionalBool(t *testing.T) {
	v, found, err := GetOptionalBool(map[string]interface{}{"flag": true}, "flag")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, v)

	_, found, err = GetOptionalBool(nil, "flag")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = GetOptionalBool(map[string]interface{}{"flag": "true"}, "flag")
	assert.Error(t, err)
}

func TestGetOptionalFloat(t *testing.T) {
	cases := map[string]interface{}{
		"f64": float64(1.5),
		"f32": float32(1.5),
		"i":   int(2),
		"i64": int64(3),
		"u64": uint64(4),
	}
	for key := range cases {
		_, found, err := GetOptionalFloat(cases, key)
		require.NoError(t, err, key)
		assert.True(t, found, key)
	}

	v, _, err := GetOptionalFloat(cases, "i")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, found, err := GetOptionalFloat(cases, "absent")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = GetOptionalFloat(map[string]interface{}{"x": "1.5"}, "x")
	assert.Error(t, err)
}

func TestGetOptionalInt(t *testing.T) {
	v, found, err := GetOptionalInt(map[string]interface{}{"n": int64(7)}, "n")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, v)

	// Whole-number floats coerce; fractional ones do not.
	v, _, err = GetOptionalInt(map[string]interface{}{"n": 3.0}, "n")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, _, err = GetOptionalInt(map[string]interface{}{"n": 3.5}, "n")
	assert.Error(t, err)

	_, _, err = GetOptionalInt(map[string]interface{}{"n": "3"}, "n")
	assert.Error(t, err)
}

func TestCheckRequired(t *testing.T) {
	params := map[string]interface{}{"a": 1, "b": 2}
	assert.NoError(t, CheckRequired(params, []string{"a", "b"}))
	assert.Error(t, CheckRequired(params, []string{"a", "c"}))
	assert.NoError(t, CheckRequired(params, nil))
}

func TestCheckAllowed(t *testing.T) {
	params := map[string]interface{}{"a": 1}
	assert.NoError(t, CheckAllowed(params, []string{"a", "b"}))
	assert.Error(t, CheckAllowed(params, []string{"b"}))
	assert.NoError(t, CheckAllowed(nil, []string{"a"}))
}
