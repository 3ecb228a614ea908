package flaky

import (
	"math"
	"sort"
	"time"

	"github.com/drew/flakewatch/internal/model"
)

const (
	// brokenRate is the failure rate from which a test counts as broken, not flaky
	brokenRate = 0.9
	// recentWindow is how many of the latest runs are checked for failures
	recentWindow = 5
	// maxTransitions caps the alternation needed to call failures intermittent
	maxTransitions = 3
)

// Criteria are the parameters of historical analysis
type Criteria struct {
	MinRuns        int
	FlakyThreshold float64
}

// HistoryStats is the statistical summary of one test's run window
type HistoryStats struct {
	TotalRuns               int
	Failures                int
	Passes                  int
	FailureRate             float64
	HasIntermittentFailures bool
	HasRecentFailures       bool
	AvgRetries              float64
	IsFlaky                 bool
	Severity                model.Severity
}

// AnalyzeHistory computes the statistics of h. ok is false when h has fewer than
// c.MinRuns runs, in which case nothing is computed.
func AnalyzeHistory(h *model.TestHistory, c Criteria) (stats HistoryStats, ok bool) {
	if h == nil || len(h.Runs) == 0 || len(h.Runs) < c.MinRuns {
		return HistoryStats{}, false
	}

	runs := h.Runs
	stats.TotalRuns = len(runs)

	transitions := 0
	retries := 0
	for i, r := range runs {
		switch r.Status {
		case model.StatusFailed:
			stats.Failures++
		case model.StatusPassed:
			stats.Passes++
		}
		retries += r.Retries
		if i > 0 && r.Status != runs[i-1].Status {
			transitions++
		}
	}

	total := float64(stats.TotalRuns)
	stats.FailureRate = float64(stats.Failures) / total
	stats.AvgRetries = float64(retries) / total
	stats.HasIntermittentFailures = float64(transitions) >= math.Min(total*0.3, maxTransitions)

	recent := runs
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	for _, r := range recent {
		if r.Status == model.StatusFailed {
			stats.HasRecentFailures = true
			break
		}
	}

	stats.IsFlaky = stats.FailureRate >= c.FlakyThreshold && stats.FailureRate < brokenRate && stats.Passes > 0
	stats.Severity = classify(stats)
	return stats, true
}

func classify(s HistoryStats) model.Severity {
	switch {
	case s.FailureRate >= 0.5 && s.HasRecentFailures:
		return model.SeverityHigh
	case s.FailureRate >= 0.3 || s.AvgRetries >= 2:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// DetectHistorical analyzes every history of doc and returns the flaky ones as
// historical detections, ordered by history key.
func DetectHistorical(doc *model.HistoryDocument, c Criteria, now time.Time) []model.FlakeRecord {
	if doc == nil {
		return nil
	}

	keys := make([]string, 0, len(doc.Tests))
	for k := range doc.Tests {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	analyzedAt := model.FormatTimestamp(now)
	var found []model.FlakeRecord
	for _, key := range keys {
		h := doc.Tests[key]
		stats, ok := AnalyzeHistory(h, c)
		if !ok || !stats.IsFlaky {
			continue
		}

		last := h.Runs[len(h.Runs)-1]
		rate := stats.FailureRate
		found = append(found, model.FlakeRecord{
			Title:                   h.Title,
			File:                    h.File,
			Type:                    model.DetectionHistorical,
			DetectionMethods:        []model.DetectionMethod{model.DetectionHistorical},
			Error:                   latestError(h.Runs),
			FailureRate:             &rate,
			TotalRuns:               stats.TotalRuns,
			Failures:                stats.Failures,
			Passes:                  stats.Passes,
			HasIntermittentFailures: stats.HasIntermittentFailures,
			HasRecentFailures:       stats.HasRecentFailures,
			AvgRetries:              stats.AvgRetries,
			Severity:                stats.Severity,
			LastSeen:                last.Timestamp,
			ObservedAt:              last.Timestamp,
			AnalyzedAt:              analyzedAt,
		})
	}
	return found
}

// latestError returns the error of the most recent run that recorded one
func latestError(runs []model.TestRunRecord) string {
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Error != "" {
			return runs[i].Error
		}
	}
	return ""
}
