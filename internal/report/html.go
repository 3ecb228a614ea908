package report

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/drew/flakewatch/internal/model"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatTime":    formatTime,
	"formatDate":    FormatDate,
	"formatRate":    formatRate,
	"severityClass": severityClass,
	"severityEmoji": SeverityEmoji,
	"methods":       joinMethods,
}).Parse(reportTemplate))

// HTML writes rep as a standalone HTML page
func HTML(w io.Writer, rep model.FlakyReport) error {
	data := struct {
		model.FlakyReport
		Groups []severityGroup
		Teams  []teamCount
	}{
		FlakyReport: rep,
		Groups:      groupBySeverity(rep.FlakyTests),
		Teams:       teamTally(rep.FlakyTests),
	}

	if err := htmlTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

type severityGroup struct {
	Severity model.Severity
	Tests    []model.FlakeRecord
}

func groupBySeverity(flakes []model.FlakeRecord) []severityGroup {
	var groups []severityGroup
	for _, sev := range model.Severities {
		g := severityGroup{Severity: sev}
		for _, f := range flakes {
			if f.Severity == sev {
				g.Tests = append(g.Tests, f)
			}
		}
		if len(g.Tests) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

func formatTime(timestamp string) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return timestamp
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

func formatRate(f model.FlakeRecord) string {
	if f.FailureRate == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%% (%d/%d)", *f.FailureRate*100, f.Failures, f.TotalRuns)
}

func severityClass(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return "high"
	case model.SeverityMedium:
		return "medium"
	case model.SeverityLow:
		return "low"
	default:
		return ""
	}
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Flaky Test Report</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            background: #f5f5f5;
            color: #333;
            line-height: 1.6;
        }

        .container {
            max-width: 1400px;
            margin: 0 auto;
            padding: 20px;
        }

        header, .section, .stat-card {
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }

        header {
            padding: 30px;
            margin-bottom: 30px;
        }

        h1 {
            font-size: 32px;
            margin-bottom: 10px;
            color: #2c3e50;
        }

        h2 {
            font-size: 24px;
            margin-bottom: 20px;
            color: #2c3e50;
        }

        .subtitle {
            color: #7f8c8d;
            font-size: 14px;
        }

        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 20px;
            margin-bottom: 30px;
        }

        .stat-card {
            padding: 20px;
        }

        .stat-value {
            font-size: 36px;
            font-weight: bold;
            color: #2c3e50;
        }

        .stat-label {
            color: #7f8c8d;
            font-size: 14px;
            margin-top: 5px;
        }

        .section {
            padding: 30px;
            margin-bottom: 30px;
        }

        table {
            width: 100%;
            border-collapse: collapse;
        }

        th {
            text-align: left;
            padding: 12px;
            background: #f8f9fa;
            font-weight: 600;
            color: #2c3e50;
            border-bottom: 2px solid #dee2e6;
        }

        td {
            padding: 12px;
            border-bottom: 1px solid #dee2e6;
            vertical-align: top;
        }

        tr:hover {
            background: #f8f9fa;
        }

        .badge {
            display: inline-block;
            padding: 4px 8px;
            border-radius: 4px;
            font-size: 12px;
            font-weight: 600;
        }

        .badge-high {
            background: #f8d7da;
            color: #721c24;
        }

        .badge-medium {
            background: #fff3cd;
            color: #856404;
        }

        .badge-low {
            background: #d4edda;
            color: #155724;
        }

        .mono {
            font-family: 'Monaco', 'Menlo', 'Courier New', monospace;
            font-size: 13px;
        }

        .error {
            white-space: pre-wrap;
            color: #721c24;
        }

        .empty-state {
            text-align: center;
            padding: 60px 20px;
            color: #7f8c8d;
        }

        .empty-state-icon {
            font-size: 48px;
            margin-bottom: 20px;
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>🔍 Flaky Test Report</h1>
            <div class="subtitle">Run {{.RunID}} &middot; generated {{formatTime .Timestamp}}{{if .RunURL}} &middot; <a href="{{.RunURL}}">CI run</a>{{end}}</div>
        </header>

        <div class="stats-grid">
            <div class="stat-card">
                <div class="stat-value">{{.Summary.TotalTests}}</div>
                <div class="stat-label">Tests Analyzed</div>
            </div>
            <div class="stat-card">
                <div class="stat-value">{{.Summary.TotalFlaky}}</div>
                <div class="stat-label">Flaky Tests</div>
            </div>
            <div class="stat-card">
                <div class="stat-value">{{.Summary.Immediate}} / {{.Summary.Historical}}</div>
                <div class="stat-label">Immediate / Historical</div>
            </div>
            <div class="stat-card">
                <div class="stat-value">{{.Summary.QuarantineCandidates}}</div>
                <div class="stat-label">Quarantine Candidates</div>
            </div>
        </div>

        {{if not .FlakyTests}}
        <div class="section empty-state">
            <div class="empty-state-icon">🎉</div>
            <p>No flaky tests detected.</p>
        </div>
        {{else}}
        {{range .Groups}}
        <div class="section">
            <h2>{{severityEmoji .Severity}} {{.Severity}} severity ({{len .Tests}})</h2>
            <table>
                <thead>
                    <tr>
                        <th>Test</th>
                        <th>Owner</th>
                        <th>Failure Rate</th>
                        <th>Detection</th>
                        <th>Last Seen</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Tests}}
                    <tr>
                        <td>
                            <strong>{{.Title}}</strong>
                            {{if .QuarantineCandidate}}<span class="badge badge-high">quarantine</span>{{end}}
                            <div class="mono">{{.File}}</div>
                            {{if .Error}}<div class="mono error">{{.Error}}</div>{{end}}
                            {{if .Recommendations}}
                            <ul>
                                {{range .Recommendations}}<li>{{.}}</li>{{end}}
                            </ul>
                            {{end}}
                        </td>
                        <td>{{.Owner}}</td>
                        <td><span class="badge badge-{{severityClass .Severity}}">{{formatRate .}}</span></td>
                        <td>{{methods .DetectionMethods}}</td>
                        <td>{{formatDate .LastSeen}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        <div class="section">
            <h2>👥 Team Assignments</h2>
            <table>
                <thead>
                    <tr>
                        <th>Team</th>
                        <th>Flaky Tests</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Teams}}
                    <tr>
                        <td>{{.Team}}</td>
                        <td>{{.Count}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}
    </div>
</body>
</html>
`
