// Package report renders flaky detection results for humans and machines.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/drew/flakewatch/internal/model"
)

// LastSeenLayout is the date format used for last-seen values
const LastSeenLayout = "1/2/2006"

var severityEmoji = map[model.Severity]string{
	model.SeverityHigh:   "🔴",
	model.SeverityMedium: "🟡",
	model.SeverityLow:    "🟢",
}

// generalAdvice closes every non-empty Markdown report
var generalAdvice = []string{
	"Quarantine high-severity tests so they stop blocking merges while they are fixed",
	"Replace fixed sleeps with explicit waits on application state",
	"Isolate test data so retries and parallel workers never share records",
	"Review flaky tests weekly and remove them from quarantine once stable",
}

// SeverityEmoji returns the marker for s, or an empty string
func SeverityEmoji(s model.Severity) string {
	return severityEmoji[s]
}

// Markdown renders rep as a Markdown document. The output depends only on rep.
func Markdown(rep model.FlakyReport) string {
	var b strings.Builder
	s := rep.Summary

	b.WriteString("# 🔍 Flaky Test Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", rep.Timestamp)
	fmt.Fprintf(&b, "**Run ID:** %s\n\n", rep.RunID)

	b.WriteString("## 📊 Summary\n\n")
	fmt.Fprintf(&b, "- **Total tests analyzed:** %d\n", s.TotalTests)
	fmt.Fprintf(&b, "- **Flaky tests detected:** %d\n", s.TotalFlaky)
	fmt.Fprintf(&b, "- **Immediate detections:** %d\n", s.Immediate)
	fmt.Fprintf(&b, "- **Historical detections:** %d\n", s.Historical)
	fmt.Fprintf(&b, "- **Quarantine candidates:** %d\n\n", s.QuarantineCandidates)

	b.WriteString("### Severity Breakdown\n\n")
	for _, sev := range model.Severities {
		fmt.Fprintf(&b, "- %s **%s:** %d\n", severityEmoji[sev], severityLabel(sev), s.BySeverity[sev])
	}
	b.WriteString("\n")

	if len(rep.FlakyTests) == 0 {
		b.WriteString("🎉 **No flaky tests detected!** The test suite is stable.\n")
		return b.String()
	}

	var candidates []model.FlakeRecord
	for _, f := range rep.FlakyTests {
		if f.QuarantineCandidate {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) > 0 {
		b.WriteString("## 🚨 Quarantine Candidates\n\n")
		b.WriteString("These tests should be excluded from blocking CI gates until they are fixed:\n\n")
		for _, f := range candidates {
			fmt.Fprintf(&b, "- %s **%s** (`%s`) - %s\n", severityEmoji[f.Severity], f.Title, f.File, f.Owner)
		}
		b.WriteString("\n")
	}

	b.WriteString("## 📋 All Flaky Tests\n\n")
	for _, sev := range model.Severities {
		var group []model.FlakeRecord
		for _, f := range rep.FlakyTests {
			if f.Severity == sev {
				group = append(group, f)
			}
		}
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s %s Severity (%d)\n\n", severityEmoji[sev], severityLabel(sev), len(group))
		for _, f := range group {
			writeFlake(&b, f)
		}
	}

	b.WriteString("## 💡 General Recommendations\n\n")
	for _, a := range generalAdvice {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	b.WriteString("\n")

	b.WriteString("## 👥 Team Assignments\n\n")
	for _, t := range teamTally(rep.FlakyTests) {
		fmt.Fprintf(&b, "- **%s:** %d flaky test(s)\n", t.Team, t.Count)
	}

	return b.String()
}

func writeFlake(b *strings.Builder, f model.FlakeRecord) {
	fmt.Fprintf(b, "#### %s\n\n", f.Title)
	fmt.Fprintf(b, "- **File:** `%s`\n", f.File)
	fmt.Fprintf(b, "- **Owner:** %s\n", f.Owner)
	fmt.Fprintf(b, "- **Severity:** %s %s\n", severityEmoji[f.Severity], f.Severity)
	if f.FailureRate != nil {
		fmt.Fprintf(b, "- **Failure Rate:** %.1f%% (%d/%d)\n", *f.FailureRate*100, f.Failures, f.TotalRuns)
	}
	fmt.Fprintf(b, "- **Detection Methods:** %s\n", joinMethods(f.DetectionMethods))
	if f.AvgRetries > 0 {
		fmt.Fprintf(b, "- **Average Retries:** %.1f\n", f.AvgRetries)
	}
	fmt.Fprintf(b, "- **Last Seen:** %s\n\n", FormatDate(f.LastSeen))

	if f.Error != "" {
		b.WriteString("**Latest Error:**\n\n```\n")
		b.WriteString(f.Error)
		b.WriteString("\n```\n\n")
	}

	if len(f.Recommendations) > 0 {
		b.WriteString("**Recommendations:**\n\n")
		for _, r := range f.Recommendations {
			fmt.Fprintf(b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	if f.QuarantineCandidate {
		b.WriteString("> ⚠️ **Quarantine candidate:** this test is unstable enough to be excluded from blocking CI gates until fixed.\n\n")
	}
}

// FormatDate renders an ISO-8601 timestamp as a short UTC date. Unparseable
// values are returned unchanged.
func FormatDate(timestamp string) string {
	t, err := model.ParseTimestamp(timestamp)
	if err != nil {
		return timestamp
	}
	return t.UTC().Format(LastSeenLayout)
}

func joinMethods(methods []model.DetectionMethod) string {
	parts := make([]string, len(methods))
	for i, m := range methods {
		parts[i] = string(m)
	}
	return strings.Join(parts, ", ")
}

func severityLabel(s model.Severity) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

type teamCount struct {
	Team  string
	Count int
}

// teamTally counts flaky tests per owner, most affected team first
func teamTally(flakes []model.FlakeRecord) []teamCount {
	counts := make(map[string]int)
	for _, f := range flakes {
		counts[f.Owner]++
	}

	tally := make([]teamCount, 0, len(counts))
	for team, n := range counts {
		tally = append(tally, teamCount{Team: team, Count: n})
	}
	sort.Slice(tally, func(i, j int) bool {
		if tally[i].Count != tally[j].Count {
			return tally[i].Count > tally[j].Count
		}
		return tally[i].Team < tally[j].Team
	})
	return tally
}
