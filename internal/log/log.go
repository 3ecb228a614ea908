// Package log configures the logrus logger shared by all flakewatch commands.
// Everything is written to stderr so stdout stays reserved for JSON and reports.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/drew/flakewatch/internal/ui"
)

// Options control how the logger is built
type Options struct {
	Level   string
	NoColor bool
	Output  io.Writer
}

// New builds a logger writing plain text lines without timestamps
func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	logger.SetLevel(level)

	colors := !opts.NoColor && out == os.Stderr && ui.IsColorEnabledFor(os.Stderr.Fd())
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableColors:          !colors,
		ForceColors:            colors,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})

	return logger, nil
}

// Discard returns a logger that drops everything, used by tests
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
