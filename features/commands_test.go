package features

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

type commandsContext struct {
	*sharedContext
}

// Scenario: Help lists every subcommand
func (c *commandsContext) theOutputShouldShowAvailableCommands() error {
	lowerOutput := strings.ToLower(c.stdout)
	for _, cmd := range []string{"detect", "report", "aggregate", "help"} {
		if !strings.Contains(lowerOutput, cmd) {
			return fmt.Errorf("expected output to show command '%s', got: %s", cmd, c.stdout)
		}
	}
	return nil
}

func (c *commandsContext) theErrorOutputShouldIndicateUnknownInput() error {
	lowerOutput := strings.ToLower(c.stderr)
	if !strings.Contains(lowerOutput, "unknown") && !strings.Contains(lowerOutput, "invalid") {
		return fmt.Errorf("expected error output to indicate unknown input, got: %s", c.stderr)
	}
	return nil
}

// InitializeCommandsScenario registers the command tree steps
func InitializeCommandsScenario(sc *godog.ScenarioContext, shared *sharedContext) {
	c := &commandsContext{sharedContext: shared}

	sc.Step(`^the output should show available commands$`, c.theOutputShouldShowAvailableCommands)
	sc.Step(`^the error output should indicate unknown input$`, c.theErrorOutputShouldIndicateUnknownInput)
}
