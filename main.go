// flakewatch - flaky test detection and CI result aggregation
//
// Reads Playwright-style test result artifacts produced by CI runs.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/drew/flakewatch/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
