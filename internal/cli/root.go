// Package cli wires the flakewatch pipelines into a cobra command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/drew/flakewatch/internal/aggregate"
	"github.com/drew/flakewatch/internal/config"
	flog "github.com/drew/flakewatch/internal/log"
	"github.com/drew/flakewatch/internal/ui"
)

// Version is set at build time
var Version = "dev"

// Options are the process facilities the commands use
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Env    aggregate.LookupEnv
	Now    func() time.Time
}

// globalFlags are shared by every subcommand
type globalFlags struct {
	logLevel   string
	noColor    bool
	configPath string
}

type app struct {
	opts  Options
	flags globalFlags
}

// NewRootCommand builds the flakewatch command tree
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Env == nil {
		opts.Env = os.LookupEnv
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:           "flakewatch",
		Short:         "Flaky test detection and CI result aggregation",
		Long:          "flakewatch reads Playwright-style test result artifacts, detects flaky tests across retries and run history, renders flaky test reports and aggregates CI results.",
		Version:       Version,
		SilenceErrors: true,
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "Disable colored output")
	pf.StringVar(&a.flags.configPath, "config", "", "Path to config file (default: "+config.DefaultConfigFile+")")

	root.AddCommand(
		a.newDetectCommand(),
		a.newReportCommand(),
		a.newAggregateCommand(),
	)
	return root
}

// Execute runs the command tree against the process and returns the exit code
func Execute(ctx context.Context, args []string) int {
	root := NewRootCommand(Options{})
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) logger() (*logrus.Logger, error) {
	logger, err := flog.New(flog.Options{
		Level:   a.flags.logLevel,
		NoColor: a.flags.noColor,
		Output:  a.opts.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	return logger, nil
}

// colorsFor reports whether w should receive ANSI colors
func (a *app) colorsFor(w io.Writer) bool {
	if a.flags.noColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && ui.IsColorEnabledFor(f.Fd())
}

// loadConfig reads the config file, applies defaults and validates the result
func (a *app) loadConfig(logger logrus.FieldLogger, override func(*config.Config)) (config.Config, error) {
	loaded, err := config.LoadConfig(a.flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.MergeWithDefaults(loaded)
	if err != nil {
		return config.Config{}, err
	}
	if override != nil {
		override(&cfg)
	}

	result := config.ValidateConfig(&cfg)
	for _, w := range result.Warnings {
		logger.Warnf("config: %s", w.Error())
	}
	if err := result.Err(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// requireDir fails unless path is an existing directory
func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("artifacts directory not found: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", path)
	}
	return nil
}
