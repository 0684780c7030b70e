package timeapprox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeApproxWithinTolerance(t *testing.T) {
	cmp, err := NewTimeApproxComparer(map[string]interface{}{"tolerance": "1s"})
	require.NoError(t, err)

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	equal, err := cmp.AreEqual(base, base.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, equal)

	// Symmetric: the later instant may be on either side.
	equal, err = cmp.AreEqual(base.Add(500*time.Millisecond), base)
	require.NoError(t, err)
	assert.True(t, equal)

	equal, err = cmp.AreEqual(base, base.Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestTimeApproxLocationIndependent(t *testing.T) {
	cmp, err := NewTimeApproxComparer(map[string]interface{}{"tolerance": "1s"})
	require.NoError(t, err)

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	shifted := base.In(time.FixedZone("CET", 3600)).Add(300 * time.Millisecond)

	equal, err := cmp.AreEqual(base, shifted)
	require.NoError(t, err)
	assert.True(t, equal)
}

func TestTimeApproxDefaultIsExact(t *testing.T) {
	cmp, err := NewTimeApproxComparer(nil)
	require.NoError(t, err)

	base := time.Now()
	equal, err := cmp.AreEqual(base, base)
	require.NoError(t, err)
	assert.True(t, equal)

	equal, err = cmp.AreEqual(base, base.Add(time.Nanosecond))
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestTimeApproxRejectsBadParams(t *testing.T) {
	_, err := NewTimeApproxComparer(map[string]interface{}{"tolerance": "eventually"})
	assert.Error(t, err)

	_, err = NewTimeApproxComparer(map[string]interface{}{"tolerance": "-1s"})
	assert.Error(t, err)

	_, err = NewTimeApproxComparer(map[string]interface{}{"tolerance": 5})
	assert.Error(t, err)

	_, err = NewTimeApproxComparer(map[string]interface{}{"window": "1s"})
	assert.Error(t, err)
}

func TestTimeApproxRejectsNonTimes(t *testing.T) {
	cmp, err := NewTimeApproxComparer(nil)
	require.NoError(t, err)

	_, err = cmp.AreEqual("2026-08-23", time.Now())
	assert.Error(t, err)
}
