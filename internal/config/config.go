// Package config handles loading, validation, and merging of flakewatch configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"

	"github.com/drew/flakewatch/internal/model"
)

// DefaultConfigFile is looked up in the working directory when no --config is given
const DefaultConfigFile = "flakewatch.toml"

// HistoryFileName is the history file created next to the artifacts directory
const HistoryFileName = "test-history.json"

// Config represents the complete flakewatch configuration
type Config struct {
	Detector DetectorConfig `toml:"detector"`
	Owners   []OwnerRule    `toml:"owners"`
}

// DetectorConfig holds the flaky detection parameters
type DetectorConfig struct {
	// Rolling history window in days
	HistoryDays int `toml:"historyDays" doc:"Rolling history window in days; older runs are pruned"`
	// Minimum runs before a test is analyzed historically
	MinRuns int `toml:"minRuns" doc:"Minimum runs in the window before a test is analyzed historically"`
	// Failure rate from which a test counts as flaky
	FlakyThreshold float64 `toml:"flakyThreshold" doc:"Failure rate (0-1] from which a test counts as flaky"`
	// History file location
	HistoryFile string `toml:"historyFile" doc:"History file path (default: <artifacts-dir>/../test-history.json)"`
	// How long to wait for the history lock
	LockTimeoutSeconds int `toml:"lockTimeoutSeconds" doc:"Seconds to wait for the history file lock"`
	// Concurrent artifact parsers
	ParseWorkers int `toml:"parseWorkers" doc:"Number of artifact files parsed concurrently"`
}

// OwnerRule maps a substring of a test file path to the owning team
type OwnerRule struct {
	// Substring matched against the test file path
	Match string `toml:"match" doc:"Substring matched against the test file path" required:"true"`
	// Team assigned when the substring matches
	Team string `toml:"team" doc:"Team assigned when the substring matches" required:"true"`
}

// LoadConfig loads configuration from a TOML file.
// A missing default file yields (nil, nil); a missing explicit file is an error.
func LoadConfig(path string) (*Config, error) {
	explicitPath := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicitPath {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, nil
	}

	var cfg Config
	metadata, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Check for unknown fields
	undecoded := metadata.Undecoded()
	if len(undecoded) > 0 {
		var unknownFields []string
		for _, key := range undecoded {
			unknownFields = append(unknownFields, key.String())
		}
		return nil, fmt.Errorf("unknown fields in config: %s", strings.Join(unknownFields, ", "))
	}

	if err := checkExplicitZeros(metadata, cfg.Detector); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// checkExplicitZeros rejects numeric detector keys written as 0. The merge with
// defaults cannot tell them apart from unset keys and would replace them silently.
func checkExplicitZeros(metadata toml.MetaData, d DetectorConfig) error {
	numeric := []struct {
		key  string
		zero bool
	}{
		{"historyDays", d.HistoryDays == 0},
		{"minRuns", d.MinRuns == 0},
		{"flakyThreshold", d.FlakyThreshold == 0},
		{"lockTimeoutSeconds", d.LockTimeoutSeconds == 0},
		{"parseWorkers", d.ParseWorkers == 0},
	}
	for _, n := range numeric {
		if n.zero && metadata.IsDefined("detector", n.key) {
			return ValidationError{Field: "detector." + n.key, Message: "must not be 0"}
		}
	}
	return nil
}

// GetDefaults returns the default configuration
func GetDefaults() Config {
	return Config{
		Detector: DetectorConfig{
			HistoryDays:        7,
			MinRuns:            5,
			FlakyThreshold:     0.2,
			LockTimeoutSeconds: 30,
			ParseWorkers:       4,
		},
		Owners: DefaultOwnerRules(),
	}
}

// MergeWithDefaults fills every unset field of cfg from GetDefaults
func MergeWithDefaults(cfg *Config) (Config, error) {
	defaults := GetDefaults()
	if cfg == nil {
		return defaults, nil
	}

	merged := *cfg
	merged.Owners = append([]OwnerRule(nil), cfg.Owners...)
	if err := mergo.Merge(&merged, defaults); err != nil {
		return Config{}, fmt.Errorf("failed to merge config defaults: %w", err)
	}
	return merged, nil
}

// HistoryPath resolves where the history file for artifactsDir lives
func (d DetectorConfig) HistoryPath(artifactsDir string) string {
	if d.HistoryFile != "" {
		return d.HistoryFile
	}
	return filepath.Join(artifactsDir, "..", HistoryFileName)
}

// LockTimeout returns the history lock timeout as a duration
func (d DetectorConfig) LockTimeout() time.Duration {
	return time.Duration(d.LockTimeoutSeconds) * time.Second
}

// Settings returns the parameters echoed into the detector output
func (d DetectorConfig) Settings() model.DetectorSettings {
	return model.DetectorSettings{
		HistoryDays:    d.HistoryDays,
		MinRuns:        d.MinRuns,
		FlakyThreshold: d.FlakyThreshold,
	}
}
