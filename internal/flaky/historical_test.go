package flaky

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drew/flakewatch/internal/model"
)

var defaultCriteria = Criteria{MinRuns: 5, FlakyThreshold: 0.2}

var base = time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)

// historyOf builds a history from a compact pattern, F for failed and P for passed
func historyOf(pattern string, retries ...int) *model.TestHistory {
	h := &model.TestHistory{Title: "checkout", File: "ui/cart.spec.ts"}
	for i, c := range pattern {
		status := model.StatusPassed
		errMsg := ""
		if c == 'F' {
			status = model.StatusFailed
			errMsg = fmt.Sprintf("failure %d", i)
		}
		r := 0
		if i < len(retries) {
			r = retries[i]
		}
		h.Runs = append(h.Runs, model.TestRunRecord{
			RunID:     fmt.Sprintf("run-%d", i),
			Timestamp: model.FormatTimestamp(base.Add(time.Duration(i) * time.Hour)),
			Status:    status,
			Retries:   r,
			Error:     errMsg,
		})
	}
	return h
}

func TestAnalyzeHistoryBelowMinRuns(t *testing.T) {
	_, ok := AnalyzeHistory(historyOf("FPFP"), defaultCriteria)
	assert.False(t, ok)

	_, ok = AnalyzeHistory(nil, defaultCriteria)
	assert.False(t, ok)

	_, ok = AnalyzeHistory(historyOf("FPFPF"), defaultCriteria)
	assert.True(t, ok)
}

func TestAnalyzeHistoryThreeOfTen(t *testing.T) {
	stats, ok := AnalyzeHistory(historyOf("FPPFPPPFPP"), defaultCriteria)
	require.True(t, ok)

	assert.Equal(t, 10, stats.TotalRuns)
	assert.Equal(t, 3, stats.Failures)
	assert.Equal(t, 7, stats.Passes)
	assert.InDelta(t, 0.3, stats.FailureRate, 1e-9)
	assert.True(t, stats.IsFlaky)
	assert.True(t, stats.HasRecentFailures)
}

func TestAnalyzeHistoryBrokenTests(t *testing.T) {
	allFailed, ok := AnalyzeHistory(historyOf("FFFFFFFFFF"), defaultCriteria)
	require.True(t, ok)
	assert.Equal(t, 1.0, allFailed.FailureRate)
	assert.False(t, allFailed.IsFlaky)

	// 0.9 exactly is excluded
	nineOfTen, ok := AnalyzeHistory(historyOf("FFFFFFFFFP"), defaultCriteria)
	require.True(t, ok)
	assert.InDelta(t, 0.9, nineOfTen.FailureRate, 1e-9)
	assert.False(t, nineOfTen.IsFlaky)

	eightOfTen, ok := AnalyzeHistory(historyOf("FFFFFFFFPP"), defaultCriteria)
	require.True(t, ok)
	assert.True(t, eightOfTen.IsFlaky)
}

func TestAnalyzeHistoryThreshold(t *testing.T) {
	// 1 of 10 is below the default threshold
	stats, ok := AnalyzeHistory(historyOf("PPPPFPPPPP"), defaultCriteria)
	require.True(t, ok)
	assert.False(t, stats.IsFlaky)

	stats, ok = AnalyzeHistory(historyOf("PPPPFPPPPP"), Criteria{MinRuns: 5, FlakyThreshold: 0.1})
	require.True(t, ok)
	assert.True(t, stats.IsFlaky)

	// failures without any pass are never flaky, even below the broken rate
	skipped := historyOf("FPPPP")
	for i := 1; i < len(skipped.Runs); i++ {
		skipped.Runs[i].Status = model.StatusSkipped
	}
	stats, ok = AnalyzeHistory(skipped, defaultCriteria)
	require.True(t, ok)
	assert.Equal(t, 0, stats.Passes)
	assert.False(t, stats.IsFlaky)
}

func TestIntermittentFailures(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		// 5 runs: needs min(1.5, 3) transitions
		{"PPPPF", false},
		{"PPPFP", true},
		// 10 runs: needs 3 transitions
		{"FFFFFPPPPP", false},
		{"FFPPFFPPPP", true},
		// 20 runs: still capped at 3 transitions
		{"FFFFFPPPPPFFFFFPPPPP", true},
		{"FFFFFFFFFFPPPPPPPPPP", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			stats, ok := AnalyzeHistory(historyOf(tt.pattern), defaultCriteria)
			require.True(t, ok)
			assert.Equal(t, tt.want, stats.HasIntermittentFailures)
		})
	}
}

func TestRecentFailures(t *testing.T) {
	stats, _ := AnalyzeHistory(historyOf("FFFFPPPPP"), defaultCriteria)
	assert.False(t, stats.HasRecentFailures)

	stats, _ = AnalyzeHistory(historyOf("FFFPFPPPP"), defaultCriteria)
	assert.True(t, stats.HasRecentFailures)
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		retries []int
		want    model.Severity
	}{
		{"high rate with recent failure", "PPPPPFFFFF", nil, model.SeverityHigh},
		{"high rate without recent failure", "FFFFFFPPPPP", nil, model.SeverityMedium},
		{"medium rate", "FPPFPPPFPP", nil, model.SeverityMedium},
		{"retries push to medium", "FPPPPPPPPP", []int{2, 2, 2, 2, 2, 2, 2, 2, 2, 2}, model.SeverityMedium},
		{"low", "FPPPPPFPPP", nil, model.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, ok := AnalyzeHistory(historyOf(tt.pattern, tt.retries...), defaultCriteria)
			require.True(t, ok)
			assert.Equal(t, tt.want, stats.Severity)
		})
	}
}

func TestAvgRetries(t *testing.T) {
	stats, ok := AnalyzeHistory(historyOf("FPFPP", 1, 0, 2, 0, 2), defaultCriteria)
	require.True(t, ok)
	assert.InDelta(t, 1.0, stats.AvgRetries, 1e-9)
}

func TestDetectHistorical(t *testing.T) {
	now := base.Add(24 * time.Hour)
	flaky := historyOf("FPPFPPPFPP")
	stable := historyOf("PPPPPPPPPP")
	stable.Title = "stable"
	young := historyOf("FPF")
	young.Title = "young"

	doc := &model.HistoryDocument{Tests: map[string]*model.TestHistory{
		"ui/cart.spec.ts::checkout": flaky,
		"ui/cart.spec.ts::stable":   stable,
		"ui/cart.spec.ts::young":    young,
	}}

	found := DetectHistorical(doc, defaultCriteria, now)
	require.Len(t, found, 1)

	rec := found[0]
	assert.Equal(t, "checkout", rec.Title)
	assert.Equal(t, "ui/cart.spec.ts", rec.File)
	assert.Equal(t, model.DetectionHistorical, rec.Type)
	assert.Equal(t, []model.DetectionMethod{model.DetectionHistorical}, rec.DetectionMethods)
	require.NotNil(t, rec.FailureRate)
	assert.InDelta(t, 0.3, *rec.FailureRate, 1e-9)
	assert.Equal(t, 10, rec.TotalRuns)
	assert.Equal(t, 3, rec.Failures)
	assert.Equal(t, 7, rec.Passes)
	assert.Equal(t, model.SeverityMedium, rec.Severity)
	assert.Equal(t, "failure 7", rec.Error)
	assert.Equal(t, flaky.Runs[9].Timestamp, rec.LastSeen)
	assert.Equal(t, flaky.Runs[9].Timestamp, rec.ObservedAt)
	assert.Equal(t, model.FormatTimestamp(now), rec.AnalyzedAt)
}

func TestDetectHistoricalNil(t *testing.T) {
	assert.Empty(t, DetectHistorical(nil, defaultCriteria, base))
}
