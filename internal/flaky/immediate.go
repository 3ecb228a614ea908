// Package flaky detects flaky tests, both within a single CI run and across the
// rolling run history, and enriches the detections for reporting.
package flaky

import (
	"time"

	"github.com/drew/flakewatch/internal/model"
	"github.com/drew/flakewatch/internal/results"
)

// IsImmediateFlake reports whether a test failed on its first attempt and passed on
// a later one.
//
// Unlike results.IsRetriedPass this ignores the test-level status and looks at the
// first attempt specifically.
func IsImmediateFlake(t model.Test) bool {
	if len(t.Results) < 2 {
		return false
	}
	if t.Results[0].Status != string(model.StatusFailed) {
		return false
	}
	for _, r := range t.Results[1:] {
		if r.Status == string(model.StatusPassed) {
			return true
		}
	}
	return false
}

// DetectImmediate returns one immediate detection per flaky test of doc, in
// document order. source is the artifact name the document came from, observedAt
// the time the run produced it. lastSeen is the analysis time.
func DetectImmediate(doc *model.Report, source string, observedAt, analyzedAt time.Time) []model.FlakeRecord {
	if doc == nil {
		return nil
	}

	observed := model.FormatTimestamp(observedAt)
	analyzed := model.FormatTimestamp(analyzedAt)
	var found []model.FlakeRecord
	doc.EachSpec(func(spec model.Spec) {
		for _, test := range spec.Tests {
			if !IsImmediateFlake(test) {
				continue
			}
			found = append(found, model.FlakeRecord{
				Title:            test.TestTitle(spec),
				File:             spec.Title,
				Type:             model.DetectionImmediate,
				DetectionMethods: []model.DetectionMethod{model.DetectionImmediate},
				Source:           source,
				RetryCount:       len(test.Results),
				Error:            results.FirstError(test),
				Severity:         model.SeverityMedium,
				LastSeen:         analyzed,
				ObservedAt:       observed,
				AnalyzedAt:       analyzed,
			})
		}
	})
	return found
}
