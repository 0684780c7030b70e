package foldcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldCaseEquality(t *testing.T) {
	cmp, err := NewFoldCaseComparer(nil)
	require.NoError(t, err)

	equal, err := cmp.AreEqual("Alice", "ALICE")
	require.NoError(t, err)
	assert.True(t, equal)

	equal, err = cmp.AreEqual("Alice", "Bob")
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestFoldCaseTrimSpace(t *testing.T) {
	cmp, err := NewFoldCaseComparer(map[string]interface{}{"trim_space": true})
	require.NoError(t, err)

	equal, err := cmp.AreEqual("  alice ", "ALICE")
	require.NoError(t, err)
	assert.True(t, equal)

	// Without trimming, surrounding whitespace matters.
	cmp, err = NewFoldCaseComparer(nil)
	require.NoError(t, err)
	equal, err = cmp.AreEqual("  alice ", "ALICE")
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestFoldCaseRejectsBadParams(t *testing.T) {
	_, err := NewFoldCaseComparer(map[string]interface{}{"trim_space": "yes"})
	assert.Error(t, err)

	_, err = NewFoldCaseComparer(map[string]interface{}{"trimspace": true})
	assert.Error(t, err)
}

func TestFoldCaseRejectsNonStrings(t *testing.T) {
	cmp, err := NewFoldCaseComparer(nil)
	require.NoError(t, err)

	_, err = cmp.AreEqual(1, "x")
	assert.Error(t, err)
	_, err = cmp.AreEqual("x", 1)
	assert.Error(t, err)
}
