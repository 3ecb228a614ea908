package features

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/drew/flakewatch/internal/config"
	"github.com/drew/flakewatch/internal/model"
)

type detectContext struct {
	*sharedContext
}

func (c *detectContext) historyPath() string {
	return c.path(config.HistoryFileName)
}

func (c *detectContext) readHistory() (model.HistoryDocument, error) {
	var doc model.HistoryDocument
	data, err := os.ReadFile(c.historyPath())
	if err != nil {
		return doc, err
	}
	return doc, json.Unmarshal(data, &doc)
}

// Given a history where "creates" in "api/campaigns.spec.ts" ran "PFPFPPPP"
func (c *detectContext) aHistoryWhereTestRan(title, file, pattern string) error {
	doc, err := c.readHistory()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if doc.Tests == nil {
		doc.Tests = make(map[string]*model.TestHistory)
	}

	h := &model.TestHistory{Title: title, File: file}
	for i, ch := range pattern {
		status := model.StatusPassed
		if ch == 'F' {
			status = model.StatusFailed
		}
		h.Runs = append(h.Runs, model.TestRunRecord{
			RunID:     fmt.Sprintf("seed-%d", i),
			Timestamp: model.FormatTimestamp(scenarioNow.Add(-time.Duration(len(pattern)-i) * time.Hour)),
			Status:    status,
		})
	}
	doc.Tests[model.HistoryKey(file, title)] = h

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.writeFile(config.HistoryFileName, string(data))
}

func (c *detectContext) theHistoryShouldHoldRunsFor(count int, key string) error {
	doc, err := c.readHistory()
	if err != nil {
		return err
	}
	h, ok := doc.Tests[key]
	if !ok {
		return fmt.Errorf("history has no entry %q", key)
	}
	if len(h.Runs) != count {
		return fmt.Errorf("expected %d runs for %q, got %d", count, key, len(h.Runs))
	}
	return nil
}

func (c *detectContext) flakyTestShouldBeDetectedBy(title, methods string) error {
	var rep model.FlakyReport
	if err := json.Unmarshal([]byte(c.stdout), &rep); err != nil {
		return fmt.Errorf("stdout is not a flaky report: %w", err)
	}
	for _, f := range rep.FlakyTests {
		if f.Title != title {
			continue
		}
		got := make([]string, len(f.DetectionMethods))
		for i, m := range f.DetectionMethods {
			got[i] = string(m)
		}
		if strings.Join(got, ", ") != methods {
			return fmt.Errorf("expected %q to be detected by %q, got %q", title, methods, strings.Join(got, ", "))
		}
		return nil
	}
	return fmt.Errorf("flaky test %q not reported; stdout: %s", title, c.stdout)
}

func (c *detectContext) noTemporaryHistoryFilesShouldRemain() error {
	entries, err := os.ReadDir(filepath.Dir(c.historyPath()))
	if err != nil {
		return err
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			return fmt.Errorf("temporary file left behind: %s", e.Name())
		}
	}
	return nil
}

// InitializeDetectScenario registers the detect and report steps
func InitializeDetectScenario(sc *godog.ScenarioContext, shared *sharedContext) {
	c := &detectContext{sharedContext: shared}

	sc.Step(`^a history where "([^"]*)" in "([^"]*)" ran "([PF]+)"$`, c.aHistoryWhereTestRan)
	sc.Step(`^the history should hold (\d+) runs for "([^"]*)"$`, c.theHistoryShouldHoldRunsFor)
	sc.Step(`^flaky test "([^"]*)" should be detected by "([^"]*)"$`, c.flakyTestShouldBeDetectedBy)
	sc.Step(`^no temporary history files should remain$`, c.noTemporaryHistoryFilesShouldRemain)
}
