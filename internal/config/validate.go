package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult holds the results of config validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// Err returns every validation error as one error, or nil when the config is valid
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	var result *multierror.Error
	for _, e := range r.Errors {
		result = multierror.Append(result, e)
	}
	return result.ErrorOrNil()
}

// ValidateConfig validates an already-merged config
func ValidateConfig(cfg *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	if cfg == nil {
		return result
	}

	validateDetector(&cfg.Detector, result)
	validateOwners(cfg.Owners, result)

	return result
}

func (r *ValidationResult) addError(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

// validateDetector validates the detector section
func validateDetector(d *DetectorConfig, result *ValidationResult) {
	if d.HistoryDays < 1 {
		result.addError("detector.historyDays", "History window must be at least 1 day")
	}

	if d.MinRuns < 1 {
		result.addError("detector.minRuns", "Minimum runs must be at least 1")
	}

	if d.FlakyThreshold <= 0 || d.FlakyThreshold > 1 {
		result.addError("detector.flakyThreshold", fmt.Sprintf("Flaky threshold %v must be in (0, 1]", d.FlakyThreshold))
	} else if d.FlakyThreshold >= 0.9 {
		// isFlaky also requires failureRate < 0.9, nothing could ever match
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "detector.flakyThreshold",
			Message: "Threshold >= 0.9 never flags a test as flaky",
		})
	}

	if d.LockTimeoutSeconds < 1 {
		result.addError("detector.lockTimeoutSeconds", "Lock timeout must be at least 1 second")
	}

	if d.ParseWorkers < 1 {
		result.addError("detector.parseWorkers", "Parse workers must be at least 1")
	}
}

// validateOwners validates the owner rules
func validateOwners(rules []OwnerRule, result *ValidationResult) {
	seen := make(map[string]bool)
	for i, rule := range rules {
		prefix := fmt.Sprintf("owners[%d]", i)
		if rule.Match == "" {
			result.addError(prefix+".match", "Owner rule must have a match substring")
		}
		if rule.Team == "" {
			result.addError(prefix+".team", "Owner rule must have a team")
		}
		if rule.Match != "" && seen[rule.Match] {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   prefix + ".match",
				Message: fmt.Sprintf("Duplicate match %q is never reached", rule.Match),
			})
		}
		seen[rule.Match] = true
	}
}
