package flaky

import (
	"sort"

	"github.com/drew/flakewatch/internal/config"
	"github.com/drew/flakewatch/internal/model"
)

// Recommendation texts, appended in this order when their condition holds
const (
	AdviceWaits       = "Add explicit waits and use stable selectors instead of fixed timeouts"
	AdviceTestData    = "Ensure test data is isolated and cleaned up between retries"
	AdviceSplit       = "Consider splitting this test into smaller, focused tests"
	AdviceEnvironment = "Check environment stability and external service health during runs"
	AdviceRace        = "Investigate possible race conditions between test steps"
	AdviceExternal    = "Mock or stub external dependencies that may respond inconsistently"
)

// Combine merges immediate and historical detections by file and title, enriches
// every record with owner, recommendations and quarantine flag, and sorts the
// result by severity then failure rate, both descending.
//
// A test found by both analyzers keeps the immediate record and takes the
// historical statistics.
func Combine(immediate, historical []model.FlakeRecord, owners []config.OwnerRule) []model.FlakeRecord {
	merged := make([]model.FlakeRecord, 0, len(immediate)+len(historical))
	index := make(map[string]int, len(immediate)+len(historical))

	for _, rec := range immediate {
		if _, dup := index[rec.Key()]; dup {
			continue
		}
		rec.DetectionMethods = []model.DetectionMethod{model.DetectionImmediate}
		index[rec.Key()] = len(merged)
		merged = append(merged, rec)
	}

	for _, hist := range historical {
		i, ok := index[hist.Key()]
		if !ok {
			hist.DetectionMethods = []model.DetectionMethod{model.DetectionHistorical}
			index[hist.Key()] = len(merged)
			merged = append(merged, hist)
			continue
		}

		rec := &merged[i]
		if rec.HasMethod(model.DetectionHistorical) {
			continue
		}
		rec.FailureRate = hist.FailureRate
		rec.TotalRuns = hist.TotalRuns
		rec.Severity = hist.Severity
		rec.Failures = hist.Failures
		rec.Passes = hist.Passes
		rec.AvgRetries = hist.AvgRetries
		rec.HasIntermittentFailures = hist.HasIntermittentFailures
		rec.HasRecentFailures = hist.HasRecentFailures
		rec.DetectionMethods = append(rec.DetectionMethods, model.DetectionHistorical)
	}

	for i := range merged {
		enrich(&merged[i], owners)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		ri, rj := merged[i].Severity.Rank(), merged[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return merged[i].Rate() > merged[j].Rate()
	})
	return merged
}

func enrich(rec *model.FlakeRecord, owners []config.OwnerRule) {
	rec.Owner = ResolveOwner(rec.File, owners)
	rec.Recommendations = Recommendations(*rec)
	rec.QuarantineCandidate = IsQuarantineCandidate(*rec)
}

// Recommendations returns the advice for rec; every rule that applies contributes
func Recommendations(rec model.FlakeRecord) []string {
	advice := []string{}
	if rec.HasMethod(model.DetectionImmediate) {
		advice = append(advice, AdviceWaits, AdviceTestData)
	}
	if rec.Rate() > 0.4 {
		advice = append(advice, AdviceSplit, AdviceEnvironment)
	}
	if rec.AvgRetries > 2 {
		advice = append(advice, AdviceRace)
	}
	if rec.HasIntermittentFailures {
		advice = append(advice, AdviceExternal)
	}
	return advice
}

// IsQuarantineCandidate reports whether rec should be pulled from blocking CI gates
func IsQuarantineCandidate(rec model.FlakeRecord) bool {
	return rec.Severity == model.SeverityHigh ||
		(rec.Rate() > 0.3 && rec.HasRecentFailures) ||
		rec.AvgRetries >= 3
}
