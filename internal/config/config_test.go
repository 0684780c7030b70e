package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objgraph-labs/objgraph/internal/comparers"
	v1 "github.com/objgraph-labs/objgraph/pkg/objgraph/v1"
	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/plugin"
)

const validProfile = `
name: loose_numeric
schemaVersion: v1.0.0
options:
  ignore_collection_order: true
  null_handling: loose
  float_tolerance: 0.001
  max_depth: 32
  excluded_members:
    - UpdatedAt
`

func TestLoadProfileValid(t *testing.T) {
	p, err := LoadProfile([]byte(validProfile), "test.yaml")
	require.NoError(t, err)
	assert.Equal(t, "loose_numeric", p.Name)
	assert.Equal(t, "v1.0.0", p.SchemaVersion)
	assert.True(t, p.Options.IgnoreCollectionOrder)
	assert.Equal(t, "loose", p.Options.NullHandling)
	require.NotNil(t, p.Options.FloatTolerance)
	assert.Equal(t, 0.001, *p.Options.FloatTolerance)
	assert.Equal(t, []string{"UpdatedAt"}, p.Options.ExcludedMembers)
	assert.Equal(t, "test.yaml", p.FilePath)
}

func TestLoadProfileEmpty(t *testing.T) {
	_, err := LoadProfile(nil, "empty.yaml")
	require.Error(t, err)
	var cfgErr *objerrors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestLoadProfileRejectsUnknownFields(t *testing.T) {
	doc := `
name: typo
schemaVersion: v1.0.0
optionz:
  max_depth: 3
`
	_, err := LoadProfile([]byte(doc), "typo.yaml")
	require.Error(t, err)
}

func TestLoadProfileRejectsMissingSchemaVersion(t *testing.T) {
	doc := `
name: incomplete
`
	_, err := LoadProfile([]byte(doc), "incomplete.yaml")
	require.Error(t, err)
}

func TestLoadProfileRejectsWrongMajorVersion(t *testing.T) {
	doc := `
name: future
schemaVersion: v2.0.0
`
	_, err := LoadProfile([]byte(doc), "future.yaml")
	require.Error(t, err)
	var valErr *objerrors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, valErr.Error(), "not compatible")
}

func TestLoadProfileAcceptsBareVersion(t *testing.T) {
	doc := `
name: bare
schemaVersion: "1.0.0"
`
	p, err := LoadProfile([]byte(doc), "bare.yaml")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", p.SchemaVersion)
}

func TestLoadProfileRejectsInvalidOptionValues(t *testing.T) {
	doc := `
name: bad
schemaVersion: v1.0.0
options:
  max_depth: -3
`
	_, err := LoadProfile([]byte(doc), "bad.yaml")
	require.Error(t, err)
}

func TestLoadProfileRejectsBadNullHandling(t *testing.T) {
	doc := `
name: bad
schemaVersion: v1.0.0
options:
  null_handling: fuzzy
`
	_, err := LoadProfile([]byte(doc), "bad.yaml")
	require.Error(t, err)
}

func TestLoadProfileFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validProfile), 0o600))

	p, err := LoadProfileFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "loose_numeric", p.Name)
	assert.True(t, strings.HasSuffix(p.FilePath, "profile.yaml"))
}

func TestLoadProfileFromFileMissing(t *testing.T) {
	_, err := LoadProfileFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = LoadProfileFromFile("")
	assert.Error(t, err)
}

func TestValidateProfileStructureDuplicateBindings(t *testing.T) {
	p := &Profile{
		Name:          "dup",
		SchemaVersion: "v1.0.0",
		Comparers: []ComparerBinding{
			{Type: "time.Time", Comparer: "timeapprox"},
			{Type: "time.Time", Comparer: "foldcase"},
		},
	}
	errs := ValidateProfileStructure(p)
	require.NotEmpty(t, errs)
}

// stubComparer satisfies plugin.Comparer for binding tests.
type stubComparer struct{}

func (stubComparer) AreEqual(a, b interface{}) (bool, error) { return true, nil }

func TestBuildOptionsOverlaysDefaults(t *testing.T) {
	p, err := LoadProfile([]byte(validProfile), "test.yaml")
	require.NoError(t, err)

	opts, err := p.BuildOptions(nil, nil)
	require.NoError(t, err)

	assert.True(t, opts.IgnoreCollectionOrder)
	assert.Equal(t, v1.NullHandlingLoose, opts.NullHandling)
	assert.Equal(t, 0.001, opts.FloatTolerance)
	assert.Equal(t, 32, opts.MaxDepth)
	// Untouched settings keep their defaults.
	assert.True(t, opts.DeepComparison)
	assert.True(t, opts.ContinueOnFirstDifference)
	assert.Equal(t, int64(v1.DefaultMaxObjectCount), opts.MaxObjectCount)
	assert.True(t, opts.IsExcluded("UpdatedAt"))
}

func TestBuildOptionsResolvesBindings(t *testing.T) {
	registry := comparers.NewStaticRegistry()
	require.NoError(t, registry.Register("stub", func(params map[string]interface{}) (plugin.Comparer, error) {
		return stubComparer{}, nil
	}))

	types := NewTypeTable()
	name := types.RegisterType(time.Time{})
	assert.Equal(t, "time.Time", name)

	p := &Profile{
		Name:          "bound",
		SchemaVersion: "v1.0.0",
		Comparers: []ComparerBinding{
			{Type: "time.Time", Comparer: "stub"},
		},
	}
	opts, err := p.BuildOptions(registry, types)
	require.NoError(t, err)

	cmp, found := opts.ComparerFor(reflect.TypeOf(time.Time{}))
	require.True(t, found)
	assert.NotNil(t, cmp)
}

func TestBuildOptionsUnknownComparer(t *testing.T) {
	registry := comparers.NewStaticRegistry()
	types := NewTypeTable()
	types.RegisterType(time.Time{})

	p := &Profile{
		Name:          "missing",
		SchemaVersion: "v1.0.0",
		Comparers:     []ComparerBinding{{Type: "time.Time", Comparer: "ghost"}},
	}
	_, err := p.BuildOptions(registry, types)
	require.Error(t, err)
	var notFound *objerrors.ComparerNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestBuildOptionsUnregisteredType(t *testing.T) {
	registry := comparers.NewStaticRegistry()
	require.NoError(t, registry.Register("stub", func(params map[string]interface{}) (plugin.Comparer, error) {
		return stubComparer{}, nil
	}))

	p := &Profile{
		Name:          "untyped",
		SchemaVersion: "v1.0.0",
		Comparers:     []ComparerBinding{{Type: "mystery.Type", Comparer: "stub"}},
	}
	_, err := p.BuildOptions(registry, NewTypeTable())
	require.Error(t, err)
	var valErr *objerrors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestBuildOptionsFactoryRejection(t *testing.T) {
	registry := comparers.NewStaticRegistry()
	require.NoError(t, registry.Register("picky", func(params map[string]interface{}) (plugin.Comparer, error) {
		return nil, errors.New("bad params")
	}))
	types := NewTypeTable()
	types.RegisterType(time.Time{})

	p := &Profile{
		Name:          "rejected",
		SchemaVersion: "v1.0.0",
		Comparers:     []ComparerBinding{{Type: "time.Time", Comparer: "picky"}},
	}
	_, err := p.BuildOptions(registry, types)
	require.Error(t, err)
	var cfgErr *objerrors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}
