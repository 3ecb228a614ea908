package features

import (
	"fmt"

	"github.com/cucumber/godog"
)

type aggregateContext struct {
	*sharedContext
}

func (c *aggregateContext) environmentHealthCheckShouldBe(env, expected string) error {
	return c.theJSONFieldShouldBe("environments."+env+".healthCheck", expected)
}

func (c *aggregateContext) theFailuresListShouldHaveEntries(count int) error {
	doc, err := c.stdoutJSON()
	if err != nil {
		return err
	}
	v, err := lookupPath(doc, "failures")
	if err != nil {
		return err
	}
	list, ok := v.([]any)
	if !ok {
		return fmt.Errorf("failures is not a list: %v", v)
	}
	if len(list) != count {
		return fmt.Errorf("expected %d failures, got %d", count, len(list))
	}
	return nil
}

func (c *aggregateContext) theFirstFailureShouldHaveOccurrences(count int) error {
	doc, err := c.stdoutJSON()
	if err != nil {
		return err
	}
	list, _ := doc["failures"].([]any)
	if len(list) == 0 {
		return fmt.Errorf("no failures reported; stdout: %s", c.stdout)
	}
	first, _ := list[0].(map[string]any)
	if got := fmt.Sprint(first["occurrences"]); got != fmt.Sprint(count) {
		return fmt.Errorf("expected %d occurrences, got %s", count, got)
	}
	return nil
}

// InitializeAggregateScenario registers the aggregate steps
func InitializeAggregateScenario(sc *godog.ScenarioContext, shared *sharedContext) {
	c := &aggregateContext{sharedContext: shared}

	sc.Step(`^environment "([^"]*)" health check should be "([^"]*)"$`, c.environmentHealthCheckShouldBe)
	sc.Step(`^the failures list should have (\d+) entr(?:y|ies)$`, c.theFailuresListShouldHaveEntries)
	sc.Step(`^the first failure should have (\d+) occurrences$`, c.theFirstFailureShouldHaveOccurrences)
}
