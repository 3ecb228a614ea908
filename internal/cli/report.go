package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drew/flakewatch/internal/model"
	"github.com/drew/flakewatch/internal/report"
	"github.com/drew/flakewatch/internal/ui"
)

func (a *app) newReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "report <flaky-tests.json> [markdown|json|html|terminal]",
		Short:     "Render a flaky test report from detect output",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"markdown", "json", "html", "terminal"},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			format, err := report.ParseFormat(name)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return a.runReport(args[0], format)
		},
	}
}

func (a *app) runReport(path string, format report.Format) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", path)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var rep model.FlakyReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return report.Render(a.opts.Stdout, format, rep, report.Options{
		Now:    a.opts.Now(),
		Width:  ui.GetTerminalWidth(),
		Color:  a.colorsFor(a.opts.Stdout),
		Source: data,
	})
}
