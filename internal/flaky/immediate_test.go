package flaky

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drew/flakewatch/internal/model"
	"github.com/drew/flakewatch/internal/results"
)

func attempts(statuses ...string) []model.Attempt {
	out := make([]model.Attempt, len(statuses))
	for i, s := range statuses {
		out[i] = model.Attempt{Status: s, Retry: i}
	}
	return out
}

func TestIsImmediateFlake(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		attempts []string
		want     bool
	}{
		{"failed then passed", "flaky", []string{"failed", "passed"}, true},
		{"failed twice", "failed", []string{"failed", "failed"}, false},
		{"failed failed passed", "flaky", []string{"failed", "failed", "passed"}, true},
		{"single failure", "failed", []string{"failed"}, false},
		{"single pass", "passed", []string{"passed"}, false},
		{"passed then failed", "failed", []string{"passed", "failed"}, false},
		{"timed out then passed", "flaky", []string{"timedOut", "passed"}, false},
		{"no attempts", "skipped", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test := model.Test{Title: "t", Status: tt.status, Results: attempts(tt.attempts...)}
			assert.Equal(t, tt.want, IsImmediateFlake(test))
		})
	}
}

// The two flaky predicates disagree on purpose; pin the cases where they differ.
func TestImmediateRuleDiffersFromRetriedPass(t *testing.T) {
	// test-level status passed, so the parser does not call it flaky
	passedStatus := model.Test{Status: "passed", Results: attempts("failed", "passed")}
	assert.True(t, IsImmediateFlake(passedStatus))
	assert.False(t, results.IsRetriedPass(passedStatus))

	// first attempt passed, so the immediate analyzer does not call it flaky
	firstPassed := model.Test{Status: "failed", Results: attempts("passed", "failed")}
	assert.False(t, IsImmediateFlake(firstPassed))
	assert.True(t, results.IsRetriedPass(firstPassed))
}

func TestDetectImmediate(t *testing.T) {
	observed := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	analyzed := observed.Add(time.Hour)

	doc := &model.Report{Suites: []model.Suite{{
		Title: "root",
		Specs: []model.Spec{{
			Title: "ui/segments.spec.ts",
			Tests: []model.Test{
				{Title: "filters", Status: "flaky", Results: []model.Attempt{
					{Status: "failed", Duration: 1000, Error: &model.AttemptError{Message: "\x1b[31mTimeout\x1b[0m waiting\nat line 3"}},
					{Status: "passed", Duration: 500},
				}},
				{Title: "stable", Status: "passed", Results: attempts("passed")},
			},
		}},
		Suites: []model.Suite{{
			Specs: []model.Spec{{
				Title: "api/users.spec.ts",
				Tests: []model.Test{{Status: "flaky", Results: attempts("failed", "failed", "passed")}},
			}},
		}},
	}}}

	found := DetectImmediate(doc, "results-staging-e2e.json", observed, analyzed)
	require.Len(t, found, 2)

	first := found[0]
	assert.Equal(t, "filters", first.Title)
	assert.Equal(t, "ui/segments.spec.ts", first.File)
	assert.Equal(t, model.DetectionImmediate, first.Type)
	assert.Equal(t, []model.DetectionMethod{model.DetectionImmediate}, first.DetectionMethods)
	assert.Equal(t, "results-staging-e2e.json", first.Source)
	assert.Equal(t, 2, first.RetryCount)
	assert.Equal(t, "Timeout waiting", first.Error)
	assert.Equal(t, model.SeverityMedium, first.Severity)
	assert.Nil(t, first.FailureRate)
	assert.Equal(t, "2026-10-18T10:00:00.000Z", first.LastSeen)
	assert.Equal(t, "2026-10-18T10:00:00.000Z", first.AnalyzedAt)
	assert.Equal(t, "2026-10-18T09:00:00.000Z", first.ObservedAt)

	// untitled tests take the spec title
	assert.Equal(t, "api/users.spec.ts", found[1].Title)
	assert.Equal(t, 3, found[1].RetryCount)
}

func TestDetectImmediateEmpty(t *testing.T) {
	now := time.Now()
	assert.Empty(t, DetectImmediate(nil, "x", now, now))
	assert.Empty(t, DetectImmediate(&model.Report{}, "x", now, now))
}
