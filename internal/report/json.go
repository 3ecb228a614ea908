package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/drew/flakewatch/internal/model"
)

const (
	// FormatVersion is the version of the extended JSON report layout
	FormatVersion = "1.0.0"
	// FormatTag identifies the extended JSON report
	FormatTag = "flaky-test-report"
)

// Metadata describes the generated report
type Metadata struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generatedAt"`
	Format      string `json:"format"`
}

// QuarantineEntry is a quarantine candidate with a readable reason
type QuarantineEntry struct {
	Title       string         `json:"title"`
	File        string         `json:"file"`
	Owner       string         `json:"owner"`
	Severity    model.Severity `json:"severity"`
	FailureRate *float64       `json:"failureRate,omitempty"`
	Reason      string         `json:"reason"`
}

// TeamStats counts one owner's flaky tests
type TeamStats struct {
	Total      int `json:"total"`
	High       int `json:"high"`
	Quarantine int `json:"quarantine"`
}

// Extended is the detector output plus report metadata, quarantine list and team
// summary
type Extended struct {
	model.FlakyReport
	ReportMetadata Metadata             `json:"reportMetadata"`
	QuarantineList []QuarantineEntry    `json:"quarantineList"`
	TeamSummary    map[string]TeamStats `json:"teamSummary"`
}

// Extend builds the extended report for rep, generated at now
func Extend(rep model.FlakyReport, now time.Time) Extended {
	ext := Extended{
		FlakyReport: rep,
		ReportMetadata: Metadata{
			Version:     FormatVersion,
			GeneratedAt: model.FormatTimestamp(now),
			Format:      FormatTag,
		},
		QuarantineList: []QuarantineEntry{},
		TeamSummary:    make(map[string]TeamStats),
	}

	for _, f := range rep.FlakyTests {
		stats := ext.TeamSummary[f.Owner]
		stats.Total++
		if f.Severity == model.SeverityHigh {
			stats.High++
		}
		if f.QuarantineCandidate {
			stats.Quarantine++
			ext.QuarantineList = append(ext.QuarantineList, QuarantineEntry{
				Title:       f.Title,
				File:        f.File,
				Owner:       f.Owner,
				Severity:    f.Severity,
				FailureRate: f.FailureRate,
				Reason:      QuarantineReason(f),
			})
		}
		ext.TeamSummary[f.Owner] = stats
	}
	return ext
}

// QuarantineReason formats why f is a quarantine candidate
func QuarantineReason(f model.FlakeRecord) string {
	return fmt.Sprintf("%.1f%% failure rate, %s severity", f.Rate()*100, f.Severity)
}

// JSON renders the extended report as indented JSON
func JSON(rep model.FlakyReport, now time.Time) ([]byte, error) {
	data, err := json.MarshalIndent(Extend(rep, now), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}

// JSONFrom renders the extended report on top of src, the document rep was decoded
// from. Fields of src that FlakyReport does not model are kept as they are.
func JSONFrom(src []byte, rep model.FlakyReport, now time.Time) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode report source: %w", err)
	}
	if doc == nil {
		doc = make(map[string]json.RawMessage)
	}

	ext := Extend(rep, now)
	sections := map[string]any{
		"reportMetadata": ext.ReportMetadata,
		"quarantineList": ext.QuarantineList,
		"teamSummary":    ext.TeamSummary,
	}
	for key, value := range sections {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		doc[key] = raw
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}
