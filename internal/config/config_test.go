package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flakewatch.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name: "detector section",
			content: `
[detector]
historyDays = 14
minRuns = 3
flakyThreshold = 0.25
`,
		},
		{
			name: "owner rules",
			content: `
[[owners]]
match = "checkout"
team = "payments-team"
`,
		},
		{
			name:    "empty file",
			content: ``,
		},
		{
			name: "invalid toml",
			content: `
[detector
historyDays = 3
`,
			wantErr: true,
		},
		{
			name: "explicit zero lock timeout",
			content: `
[detector]
lockTimeoutSeconds = 0
`,
			wantErr: true,
		},
		{
			name: "explicit zero min runs",
			content: `
[detector]
minRuns = 0
`,
			wantErr: true,
		},
		{
			name: "unknown field",
			content: `
[detector]
historyDayz = 3
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, cfg)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err, "explicit path must exist")

	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.Chdir(t.TempDir()))

	cfg, err := LoadConfig("")
	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestMergeWithDefaults(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		merged, err := MergeWithDefaults(nil)
		require.NoError(t, err)
		assert.Equal(t, GetDefaults(), merged)
	})

	t.Run("partial detector", func(t *testing.T) {
		merged, err := MergeWithDefaults(&Config{Detector: DetectorConfig{HistoryDays: 30}})
		require.NoError(t, err)
		assert.Equal(t, 30, merged.Detector.HistoryDays)
		assert.Equal(t, 5, merged.Detector.MinRuns)
		assert.Equal(t, 0.2, merged.Detector.FlakyThreshold)
		assert.Equal(t, DefaultOwnerRules(), merged.Owners)
	})

	t.Run("custom owners replace defaults", func(t *testing.T) {
		custom := []OwnerRule{{Match: "checkout", Team: "payments-team"}}
		merged, err := MergeWithDefaults(&Config{Owners: custom})
		require.NoError(t, err)
		assert.Equal(t, custom, merged.Owners)
	})
}

func TestHistoryPath(t *testing.T) {
	d := GetDefaults().Detector
	assert.Equal(t, filepath.Join("ci", "test-history.json"), d.HistoryPath(filepath.Join("ci", "artifacts")))

	d.HistoryFile = "/var/lib/flakewatch/history.json"
	assert.Equal(t, "/var/lib/flakewatch/history.json", d.HistoryPath("anything"))
}

func TestDefaultOwnerRulesOrder(t *testing.T) {
	var matches []string
	for _, r := range DefaultOwnerRules() {
		matches = append(matches, r.Match)
	}
	assert.Equal(t, []string{"api/", "ui/", "campaign", "user", "admin"}, matches)
}

func TestLoadConfigExplicitZeroNamesField(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[detector]\nlockTimeoutSeconds = 0\n"))
	require.Error(t, err)

	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "detector.lockTimeoutSeconds", verr.Field)
}
