// Package aggregate rolls every test-result and health-check artifact of a CI run
// up into one combined status document.
package aggregate

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/drew/flakewatch/internal/discovery"
	"github.com/drew/flakewatch/internal/model"
	"github.com/drew/flakewatch/internal/results"
)

// MaxListed caps the failures and flaky lists of the combined result
const MaxListed = 5

// CI environment variables read for run identification
const (
	EnvRunID      = "GITHUB_RUN_ID"
	EnvServerURL  = "GITHUB_SERVER_URL"
	EnvRepository = "GITHUB_REPOSITORY"
)

// LookupEnv matches os.LookupEnv
type LookupEnv func(key string) (string, bool)

// Aggregator combines the artifacts of one CI run
type Aggregator struct {
	log     logrus.FieldLogger
	workers int
	lookup  LookupEnv
	now     func() time.Time
}

// New creates an aggregator parsing up to workers files at once
func New(logger logrus.FieldLogger, workers int) *Aggregator {
	return &Aggregator{
		log:     logger,
		workers: workers,
		lookup:  os.LookupEnv,
		now:     time.Now,
	}
}

// WithEnv replaces the environment lookup
func (a *Aggregator) WithEnv(lookup LookupEnv) *Aggregator {
	a.lookup = lookup
	return a
}

// WithClock replaces the time source
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Run aggregates the artifacts found under dir. Unreadable files are skipped;
// any other failure is recorded in the result's Error field with a failure status.
func (a *Aggregator) Run(dir string) (res model.AggregatedCIResult) {
	res = model.AggregatedCIResult{
		OverallStatus: model.OverallSuccess,
		Environments:  make(map[string]*model.EnvironmentResult),
		Failures:      []model.AggregatedFailure{},
		Flaky:         []model.AggregatedFailure{},
		Timestamp:     model.FormatTimestamp(a.now()),
		RunURL:        RunURL(a.lookup),
	}
	if id, ok := a.lookup(EnvRunID); ok {
		res.RunID = id
	}
	defer func() {
		if r := recover(); r != nil {
			a.log.Errorf("aggregation aborted: %v", r)
			res.Error = fmt.Sprint(r)
			res.OverallStatus = model.OverallFailure
		}
	}()

	found, err := discovery.Discover(dir)
	if err != nil {
		a.log.WithError(err).Error("failed to scan artifacts")
		res.Error = err.Error()
		res.OverallStatus = model.OverallFailure
		return res
	}
	for _, path := range found.Ignored {
		a.log.WithField("file", path).Warn("ignoring file with unexpected name")
	}

	docs, err := results.LoadAll(found.Artifacts, a.workers)
	for _, e := range results.FileErrors(err) {
		a.log.Warnf("skipping unreadable artifact: %v", e)
	}

	failures := newCollector()
	flaky := newCollector()

	for _, doc := range docs {
		art := doc.Artifact
		env := environment(res.Environments, art.Environment)

		switch art.Kind {
		case discovery.KindResults:
			summary := results.Process(doc.Report)
			counts := env.TestTypes[art.TestType]
			counts.Add(summary.Counts)
			env.TestTypes[art.TestType] = counts
			env.Totals.Add(summary.Counts)
			res.Totals.Add(summary.Counts)

			failures.add(summary.Failures, art)
			flaky.add(summary.FlakyTests, art)
			a.log.WithFields(logrus.Fields{
				"environment": art.Environment,
				"type":        art.TestType,
				"passed":      summary.Passed,
				"failed":      summary.Failed,
				"flaky":       summary.Flaky,
			}).Debug("processed result file")

		case discovery.KindHealthCheck:
			healthy := HealthCheckPassed(doc.Report)
			env.HealthCheck = &healthy
			a.log.WithField("environment", art.Environment).Debugf("health check passed: %t", healthy)
		}
	}

	res.Failures = failures.top(MaxListed)
	res.Flaky = flaky.top(MaxListed)
	res.OverallStatus = Status(res)
	return res
}

func environment(envs map[string]*model.EnvironmentResult, name string) *model.EnvironmentResult {
	env, ok := envs[name]
	if !ok {
		env = &model.EnvironmentResult{TestTypes: make(map[string]model.Counts)}
		envs[name] = env
	}
	return env
}

// HealthCheckPassed reports whether any test of any spec in doc passed
func HealthCheckPassed(doc *model.Report) bool {
	if doc == nil {
		return false
	}
	passed := false
	doc.EachSpec(func(spec model.Spec) {
		for _, t := range spec.Tests {
			if t.Outcome() == model.StatusPassed {
				passed = true
			}
		}
	})
	return passed
}

// Status is failure when any test failed or any environment lacks a passing
// health check
func Status(res model.AggregatedCIResult) model.OverallStatus {
	if res.Totals.Failed > 0 {
		return model.OverallFailure
	}
	for _, env := range res.Environments {
		if env.HealthCheck == nil || !*env.HealthCheck {
			return model.OverallFailure
		}
	}
	return model.OverallSuccess
}

// RunURL builds the CI run link. Missing variables are rendered as "undefined",
// matching the link format existing dashboards already parse.
func RunURL(lookup LookupEnv) string {
	get := func(key string) string {
		if v, ok := lookup(key); ok {
			return v
		}
		return "undefined"
	}
	return fmt.Sprintf("%s/%s/actions/runs/%s", get(EnvServerURL), get(EnvRepository), get(EnvRunID))
}

// collector deduplicates failures by title and file, keeping first-seen order
type collector struct {
	entries []*model.AggregatedFailure
	index   map[string]*model.AggregatedFailure
}

func newCollector() *collector {
	return &collector{index: make(map[string]*model.AggregatedFailure)}
}

func (c *collector) add(tests []model.TestFailure, art discovery.Artifact) {
	for _, t := range tests {
		key := t.Title + "::" + t.File
		if existing, ok := c.index[key]; ok {
			existing.Occurrences++
			if !slices.Contains(existing.Environments, art.Environment) {
				existing.Environments = append(existing.Environments, art.Environment)
			}
			continue
		}
		entry := &model.AggregatedFailure{
			Title:        t.Title,
			File:         t.File,
			Error:        t.Error,
			Environments: []string{art.Environment},
			TestType:     art.TestType,
			Occurrences:  1,
		}
		c.index[key] = entry
		c.entries = append(c.entries, entry)
	}
}

// top returns at most n entries, most frequent first
func (c *collector) top(n int) []model.AggregatedFailure {
	out := make([]model.AggregatedFailure, len(c.entries))
	for i, e := range c.entries {
		out[i] = *e
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Occurrences > out[j].Occurrences
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
