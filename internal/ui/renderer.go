package ui

import (
	"fmt"
	"io"
	"sort"

	"github.com/drew/flakewatch/internal/model"
)

// Renderer writes human readable summaries next to the machine readable output
type Renderer struct {
	colors *Colors
	out    io.Writer
}

// NewRenderer creates a new summary renderer
func NewRenderer(out io.Writer, enableColors bool) *Renderer {
	return &Renderer{
		colors: NewColors(enableColors),
		out:    out,
	}
}

// truncate shortens s to maxLen runes, adding "..." if needed
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// RenderFlakySummary renders the outcome of a detection run
func (r *Renderer) RenderFlakySummary(rep model.FlakyReport) {
	fmt.Fprintf(r.out, "%s %s\n", r.colors.Bold("flakewatch detect"), rep.RunID)

	s := rep.Summary
	if s.TotalFlaky == 0 {
		fmt.Fprintf(r.out, "%s No flaky tests across %d tests\n\n", r.colors.Green("✓"), s.TotalTests)
		return
	}

	fmt.Fprintf(r.out, "Flaky tests: %d of %d (immediate %d, historical %d)\n",
		s.TotalFlaky, s.TotalTests, s.Immediate, s.Historical)
	for _, sev := range model.Severities {
		fmt.Fprintf(r.out, "  %-8s %d\n", r.colors.SeverityColor(sev, string(sev)), s.BySeverity[sev])
	}
	fmt.Fprintf(r.out, "Quarantine candidates: %d\n", s.QuarantineCandidates)

	for _, f := range rep.FlakyTests {
		marker := " "
		if f.QuarantineCandidate {
			marker = r.colors.Red("!")
		}
		fmt.Fprintf(r.out, "%s [%-6s] %-50s %s\n",
			marker,
			r.colors.SeverityColor(f.Severity, string(f.Severity)),
			truncate(f.Title, 50),
			r.colors.Gray(f.File))
	}
	fmt.Fprintln(r.out)
}

// RenderAggregateSummary renders the per-environment rollup of a CI run
func (r *Renderer) RenderAggregateSummary(res model.AggregatedCIResult) {
	fmt.Fprintf(r.out, "%s %s\n",
		r.colors.StatusSymbol(res.OverallStatus),
		r.colors.StatusColor(res.OverallStatus, string(res.OverallStatus)))

	envs := make([]string, 0, len(res.Environments))
	for name := range res.Environments {
		envs = append(envs, name)
	}
	sort.Strings(envs)

	for _, name := range envs {
		env := res.Environments[name]
		health := r.colors.Gray("no health check")
		if env.HealthCheck != nil {
			if *env.HealthCheck {
				health = r.colors.Green("healthy")
			} else {
				health = r.colors.Red("unhealthy")
			}
		}
		t := env.Totals
		fmt.Fprintf(r.out, "  %-15s passed %d  failed %d  flaky %d  skipped %d  (%s)\n",
			truncate(name, 15), t.Passed, t.Failed, t.Flaky, t.Skipped, health)
	}

	t := res.Totals
	fmt.Fprintf(r.out, "Total: passed %d, failed %d, flaky %d, skipped %d in %dms\n\n",
		t.Passed, t.Failed, t.Flaky, t.Skipped, t.Duration)
}
