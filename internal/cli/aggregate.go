package cli

import (
	"encoding/json"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/drew/flakewatch/internal/aggregate"
	"github.com/drew/flakewatch/internal/ui"
)

func (a *app) newAggregateCommand() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "aggregate <artifacts-dir>",
		Short: "Combine all result and health-check artifacts into one CI status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return a.runAggregate(args[0], envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "Dotenv file supplying GITHUB_* variables; the process environment takes precedence")

	return cmd
}

func (a *app) runAggregate(dir, envFile string) error {
	if err := requireDir(dir); err != nil {
		return err
	}

	logger, err := a.logger()
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig(logger, nil)
	if err != nil {
		return err
	}

	lookup := a.opts.Env
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		if err != nil {
			return fmt.Errorf("failed to read env file: %w", err)
		}
		lookup = withFallback(a.opts.Env, vars)
	}

	res := aggregate.New(logger, cfg.Detector.ParseWorkers).
		WithEnv(lookup).
		WithClock(a.opts.Now).
		Run(dir)

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if _, err := fmt.Fprintln(a.opts.Stdout, string(data)); err != nil {
		return err
	}

	ui.NewRenderer(a.opts.Stderr, a.colorsFor(a.opts.Stderr)).RenderAggregateSummary(res)
	return nil
}

// withFallback resolves keys from primary first, then from vars
func withFallback(primary aggregate.LookupEnv, vars map[string]string) aggregate.LookupEnv {
	return func(key string) (string, bool) {
		if v, ok := primary(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}
}
