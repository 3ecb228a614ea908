package model

// Severity classifies how disruptive a flaky test is
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Severities lists severities from most to least severe
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// Rank orders severities for sorting; unknown or missing severities rank 0
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// DetectionMethod names the analysis that flagged a test
type DetectionMethod string

const (
	DetectionImmediate  DetectionMethod = "immediate"
	DetectionHistorical DetectionMethod = "historical"
)

// FlakeRecord is a test classified as flaky by one or both analyzers
type FlakeRecord struct {
	Title            string            `json:"title"`
	File             string            `json:"file"`
	Type             DetectionMethod   `json:"type"`
	DetectionMethods []DetectionMethod `json:"detectionMethods"`

	// Immediate detection evidence
	Source     string `json:"source,omitempty"`
	RetryCount int    `json:"retryCount,omitempty"`
	Error      string `json:"error,omitempty"`

	// Historical statistics; FailureRate is nil for immediate-only records
	FailureRate             *float64 `json:"failureRate,omitempty"`
	TotalRuns               int      `json:"totalRuns,omitempty"`
	Failures                int      `json:"failures,omitempty"`
	Passes                  int      `json:"passes,omitempty"`
	HasIntermittentFailures bool     `json:"hasIntermittentFailures"`
	HasRecentFailures       bool     `json:"hasRecentFailures"`
	AvgRetries              float64  `json:"avgRetries"`

	Severity            Severity `json:"severity,omitempty"`
	Owner               string   `json:"owner,omitempty"`
	Recommendations     []string `json:"recommendations,omitempty"`
	QuarantineCandidate bool     `json:"quarantineCandidate"`

	LastSeen   string `json:"lastSeen"`
	ObservedAt string `json:"observedAt,omitempty"`
	AnalyzedAt string `json:"analyzedAt,omitempty"`
}

// Key is the merge identity of a flake record
func (f FlakeRecord) Key() string {
	return f.File + "::" + f.Title
}

// HasMethod reports whether the record was flagged by the given analysis
func (f FlakeRecord) HasMethod(m DetectionMethod) bool {
	for _, dm := range f.DetectionMethods {
		if dm == m {
			return true
		}
	}
	return false
}

// Rate returns the failure rate, 0 when undefined
func (f FlakeRecord) Rate() float64 {
	if f.FailureRate == nil {
		return 0
	}
	return *f.FailureRate
}

// DetectorSettings records the effective analysis parameters of a run
type DetectorSettings struct {
	HistoryDays    int     `json:"historyDays"`
	MinRuns        int     `json:"minRuns"`
	FlakyThreshold float64 `json:"flakyThreshold"`
}

// FlakySummary holds the headline counts of a detection run
type FlakySummary struct {
	TotalTests           int              `json:"totalTests"`
	TotalFlaky           int              `json:"totalFlaky"`
	Immediate            int              `json:"immediate"`
	Historical           int              `json:"historical"`
	QuarantineCandidates int              `json:"quarantineCandidates"`
	BySeverity           map[Severity]int `json:"bySeverity"`
}

// FlakyReport is the document written by the detector and read by the report generators
type FlakyReport struct {
	Timestamp  string           `json:"timestamp"`
	RunID      string           `json:"runId"`
	RunURL     string           `json:"runUrl,omitempty"`
	Config     DetectorSettings `json:"config"`
	Summary    FlakySummary     `json:"summary"`
	FlakyTests []FlakeRecord    `json:"flakyTests"`
	Error      string           `json:"error,omitempty"`
}
