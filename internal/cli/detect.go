package cli

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/drew/flakewatch/internal/aggregate"
	"github.com/drew/flakewatch/internal/config"
	"github.com/drew/flakewatch/internal/flaky"
	"github.com/drew/flakewatch/internal/history"
	"github.com/drew/flakewatch/internal/ui"
)

type detectFlags struct {
	historyDays    int
	minRuns        int
	flakyThreshold float64
	historyFile    string
}

func (a *app) newDetectCommand() *cobra.Command {
	var flags detectFlags

	cmd := &cobra.Command{
		Use:   "detect <artifacts-dir>",
		Short: "Detect flaky tests in a directory of test result artifacts",
		Long:  "Detect flaky tests from retries within this run and from the rolling run history, update the history file and print the findings as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return a.runDetect(cmd, args[0], flags)
		},
	}

	f := cmd.Flags()
	f.IntVar(&flags.historyDays, "history-days", 0, "Rolling history window in days (default 7)")
	f.IntVar(&flags.minRuns, "min-runs", 0, "Minimum runs before a test is analyzed historically (default 5)")
	f.Float64Var(&flags.flakyThreshold, "flaky-threshold", 0, "Failure rate from which a test counts as flaky (default 0.2)")
	f.StringVar(&flags.historyFile, "history-file", "", "History file path (default <artifacts-dir>/../"+config.HistoryFileName+")")

	return cmd
}

func (a *app) runDetect(cmd *cobra.Command, dir string, flags detectFlags) error {
	if err := requireDir(dir); err != nil {
		return err
	}

	logger, err := a.logger()
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	cfg, err := a.loadConfig(logger, func(c *config.Config) {
		if changed("history-days") {
			c.Detector.HistoryDays = flags.historyDays
		}
		if changed("min-runs") {
			c.Detector.MinRuns = flags.minRuns
		}
		if changed("flaky-threshold") {
			c.Detector.FlakyThreshold = flags.flakyThreshold
		}
		if changed("history-file") {
			c.Detector.HistoryFile = flags.historyFile
		}
	})
	if err != nil {
		return err
	}

	run := flaky.RunInfo{}
	if id, ok := a.opts.Env(aggregate.EnvRunID); ok && id != "" {
		run.ID = id
		run.URL = aggregate.RunURL(a.opts.Env)
	} else {
		run.ID = uuid.NewString()
		logger.Debugf("%s not set, using run id %s", aggregate.EnvRunID, run.ID)
	}

	repo := history.NewFileRepository(cfg.Detector.HistoryPath(dir), cfg.Detector.LockTimeout(), logger)
	logger.WithField("history", repo.Path()).Debug("detecting flaky tests")

	report := flaky.NewDetector(cfg, repo, logger).
		WithClock(a.opts.Now).
		Run(cmd.Context(), dir, run)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if _, err := fmt.Fprintln(a.opts.Stdout, string(data)); err != nil {
		return err
	}

	ui.NewRenderer(a.opts.Stderr, a.colorsFor(a.opts.Stderr)).RenderFlakySummary(report)
	return nil
}
