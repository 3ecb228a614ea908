// Package results loads CI test-result artifacts and reduces them to counts and
// failure lists.
package results

import (
	"math"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/drew/flakewatch/internal/model"
)

// MaxErrorLength caps stored error messages
const MaxErrorLength = 200

// Summary is the reduction of one result document
type Summary struct {
	model.Counts
	Failures   []model.TestFailure `json:"failures"`
	FlakyTests []model.TestFailure `json:"flaky_tests"`
}

// IsRetriedPass reports whether a test ended failed at the test level while at
// least one of its attempts passed.
//
// This is the parser's notion of "flaky". It differs from the immediate analyzer's
// rule, which looks at the first attempt specifically; both are kept on purpose.
func IsRetriedPass(t model.Test) bool {
	if t.Outcome() != model.StatusFailed {
		return false
	}
	for _, r := range t.Results {
		if r.Status == string(model.StatusPassed) {
			return true
		}
	}
	return false
}

// Process reduces a result document to counts. A document without suites yields a
// zero summary.
func Process(doc *model.Report) Summary {
	summary := Summary{
		Failures:   []model.TestFailure{},
		FlakyTests: []model.TestFailure{},
	}
	if doc == nil {
		return summary
	}

	var duration float64
	doc.EachSpec(func(spec model.Spec) {
		for _, test := range spec.Tests {
			duration += test.TotalDuration()

			switch test.Outcome() {
			case model.StatusPassed:
				summary.Passed++
			case model.StatusSkipped:
				summary.Skipped++
			case model.StatusFailed:
				entry := model.TestFailure{
					Title: test.TestTitle(spec),
					File:  spec.Title,
					Error: FirstError(test),
				}
				if IsRetriedPass(test) {
					summary.Flaky++
					summary.FlakyTests = append(summary.FlakyTests, entry)
				} else {
					summary.Failed++
					summary.Failures = append(summary.Failures, entry)
				}
			}
		}
	})
	summary.Duration = int64(math.Round(duration))

	return summary
}

// FirstError returns the cleaned error of the first failing attempt of a test
func FirstError(t model.Test) string {
	if a := t.FirstFailure(); a != nil {
		return CleanError(a.Error.Text())
	}
	return ""
}

// CleanError strips terminal escape codes and keeps the first line, capped at
// MaxErrorLength characters
func CleanError(msg string) string {
	if msg == "" {
		return ""
	}
	msg = stripansi.Strip(msg)
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	msg = strings.TrimRight(msg, "\r")

	runes := []rune(msg)
	if len(runes) > MaxErrorLength {
		return string(runes[:MaxErrorLength])
	}
	return msg
}
