package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte("{}"), 0644))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		wantOK   bool
		kind     Kind
		format   Format
		env      string
		testType string
	}{
		{"results-staging-e2e.json", true, KindResults, FormatJSON, "staging", "e2e"},
		{"results-production-api-smoke.json", true, KindResults, FormatJSON, "production", "api-smoke"},
		{"results-staging-unit.xml", true, KindResults, FormatJUnit, "staging", "unit"},
		{"health-check-staging.json", true, KindHealthCheck, FormatJSON, "staging", ""},
		{"health-check-eu-west.json", true, KindHealthCheck, FormatJSON, "eu-west", ""},
		{"results-staging.json", false, "", "", "", ""},
		{"results-staging-e2e.txt", false, "", "", "", ""},
		{"health-check-.json", false, "", "", "", ""},
		{"summary.json", false, "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.name)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.format, got.Format)
			assert.Equal(t, tt.env, got.Environment)
			assert.Equal(t, tt.testType, got.TestType)
		})
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "staging/results-staging-e2e.json")
	touch(t, root, "staging/nested/health-check-staging.json")
	touch(t, root, "results-production-api.json")
	touch(t, root, "junit/results-production-unit.xml")
	touch(t, root, "results-broken.json")
	touch(t, root, "results-production-api.json.lock")
	touch(t, root, "playwright-report/index.json")

	got, err := Discover(root)
	require.NoError(t, err)

	var names []string
	for _, a := range got.Artifacts {
		names = append(names, a.Name)
		assert.FileExists(t, a.Path)
	}
	assert.Equal(t, []string{
		"junit/results-production-unit.xml",
		"results-production-api.json",
		"staging/nested/health-check-staging.json",
		"staging/results-staging-e2e.json",
	}, relPaths(t, root, got.Artifacts))
	assert.Len(t, names, 4)

	assert.Len(t, got.Results(), 3)
	assert.Equal(t, KindHealthCheck, got.Artifacts[2].Kind)
	assert.Equal(t, []string{filepath.Join(root, "results-broken.json")}, got.Ignored)
}

func relPaths(t *testing.T, root string, artifacts []Artifact) []string {
	t.Helper()
	var out []string
	for _, a := range artifacts {
		rel, err := filepath.Rel(root, a.Path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestDiscoverFileInsteadOfDir(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "results-staging-e2e.json")

	_, err := Discover(filepath.Join(root, "results-staging-e2e.json"))
	assert.Error(t, err)
}
