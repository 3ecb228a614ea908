package model

// OverallStatus is the rolled-up result of a CI run
type OverallStatus string

const (
	OverallSuccess OverallStatus = "success"
	OverallFailure OverallStatus = "failure"
)

// Counts are pass/fail tallies for a set of result files
type Counts struct {
	Passed   int   `json:"passed"`
	Failed   int   `json:"failed"`
	Skipped  int   `json:"skipped"`
	Flaky    int   `json:"flaky"`
	Duration int64 `json:"duration"`
}

// Add accumulates other into c
func (c *Counts) Add(other Counts) {
	c.Passed += other.Passed
	c.Failed += other.Failed
	c.Skipped += other.Skipped
	c.Flaky += other.Flaky
	c.Duration += other.Duration
}

// EnvironmentResult is the rollup for one deployment environment.
// HealthCheck is nil when no health-check artifact was found.
type EnvironmentResult struct {
	HealthCheck *bool             `json:"healthCheck,omitempty"`
	TestTypes   map[string]Counts `json:"testTypes"`
	Totals      Counts            `json:"totals"`
}

// AggregatedFailure is a failing or flaky test observed in one or more environments
type AggregatedFailure struct {
	Title        string   `json:"title"`
	File         string   `json:"file"`
	Error        string   `json:"error,omitempty"`
	Environments []string `json:"environments"`
	TestType     string   `json:"testType"`
	Occurrences  int      `json:"occurrences"`
}

// AggregatedCIResult is the combined status of every artifact of a CI run
type AggregatedCIResult struct {
	OverallStatus OverallStatus                 `json:"overallStatus"`
	Environments  map[string]*EnvironmentResult `json:"environments"`
	Totals        Counts                        `json:"totals"`
	Failures      []AggregatedFailure           `json:"failures"`
	Flaky         []AggregatedFailure           `json:"flaky"`
	Timestamp     string                        `json:"timestamp"`
	RunID         string                        `json:"runId,omitempty"`
	RunURL        string                        `json:"runUrl"`
	Error         string                        `json:"error,omitempty"`
}
