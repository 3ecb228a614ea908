// Package model holds the data types shared by the flakewatch pipelines.
package model

import "time"

// TestStatus is the normalized outcome of a test or of one of its attempts
type TestStatus string

const (
	StatusPassed  TestStatus = "passed"
	StatusFailed  TestStatus = "failed"
	StatusSkipped TestStatus = "skipped"
)

// NormalizeStatus maps Playwright's native test statuses onto passed/failed/skipped.
// Unknown values are returned unchanged.
func NormalizeStatus(s string) TestStatus {
	switch s {
	case "expected":
		return StatusPassed
	case "unexpected", "flaky":
		return StatusFailed
	default:
		return TestStatus(s)
	}
}

// TestRunRecord is one execution of one test within one CI run
type TestRunRecord struct {
	RunID     string     `json:"runId"`
	Timestamp string     `json:"timestamp"`
	Status    TestStatus `json:"status"`
	Duration  int64      `json:"duration"`
	Retries   int        `json:"retries"`
	Error     string     `json:"error,omitempty"`
}

// TestHistory is the rolling window of runs for one test
type TestHistory struct {
	Title string          `json:"title"`
	File  string          `json:"file"`
	Runs  []TestRunRecord `json:"runs"`
}

// HistoryDocument is the on-disk shape of the history file
type HistoryDocument struct {
	Tests map[string]*TestHistory `json:"tests"`
}

// HistoryKey builds the composite identity of a test in the history file
func HistoryKey(suiteName, testName string) string {
	return suiteName + "::" + testName
}

// TestFailure is a failed or flaky test extracted from a result document
type TestFailure struct {
	Title string `json:"title"`
	File  string `json:"file"`
	Error string `json:"error,omitempty"`
}

// TimestampLayout is the ISO-8601 layout used for every timestamp flakewatch writes
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC with millisecond precision
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts any RFC 3339 timestamp, with or without fractional seconds
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
