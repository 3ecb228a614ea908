package flaky

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/drew/flakewatch/internal/config"
	"github.com/drew/flakewatch/internal/discovery"
	"github.com/drew/flakewatch/internal/history"
	"github.com/drew/flakewatch/internal/model"
	"github.com/drew/flakewatch/internal/results"
)

// RunInfo identifies the CI run being analyzed
type RunInfo struct {
	ID  string
	URL string
}

// Detector runs the full detection pipeline over an artifacts directory
type Detector struct {
	cfg  config.Config
	repo history.Repository
	log  logrus.FieldLogger
	now  func() time.Time
}

// NewDetector creates a detector. cfg must already be merged with defaults.
func NewDetector(cfg config.Config, repo history.Repository, logger logrus.FieldLogger) *Detector {
	return &Detector{
		cfg:  cfg,
		repo: repo,
		log:  logger,
		now:  time.Now,
	}
}

// WithClock replaces the detector's time source
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

// Run discovers and parses the artifacts in dir, updates the history and returns
// the combined detections. Failures past argument validation never abort the run;
// they are recorded in the report's Error field.
func (d *Detector) Run(ctx context.Context, dir string, run RunInfo) (report model.FlakyReport) {
	now := d.now()
	report = model.FlakyReport{
		Timestamp:  model.FormatTimestamp(now),
		RunID:      run.ID,
		RunURL:     run.URL,
		Config:     d.cfg.Detector.Settings(),
		Summary:    summarize(nil, 0),
		FlakyTests: []model.FlakeRecord{},
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("flaky detection aborted: %v", r)
			report.Error = fmt.Sprint(r)
		}
	}()

	found, err := discovery.Discover(dir)
	if err != nil {
		d.log.WithError(err).Error("failed to scan artifacts")
		report.Error = err.Error()
		return report
	}
	for _, path := range found.Ignored {
		d.log.WithField("file", path).Warn("ignoring file with unexpected name")
	}

	docs, err := results.LoadAll(found.Results(), d.cfg.Detector.ParseWorkers)
	for _, e := range results.FileErrors(err) {
		d.log.Warnf("skipping unreadable result file: %v", e)
	}
	d.log.Debugf("parsed %d result files", len(docs))

	var immediate []model.FlakeRecord
	totalTests := 0
	for _, doc := range docs {
		immediate = append(immediate, DetectImmediate(doc.Report, doc.Artifact.Name, observedAt(doc.Artifact, now), now)...)
		totalTests += countTests(doc.Report)
	}

	store := d.updateHistory(ctx, docs, run.ID, now)

	criteria := Criteria{MinRuns: d.cfg.Detector.MinRuns, FlakyThreshold: d.cfg.Detector.FlakyThreshold}
	historical := DetectHistorical(store.Document(), criteria, now)

	report.FlakyTests = Combine(immediate, historical, d.cfg.Owners)
	report.Summary = summarize(report.FlakyTests, totalTests)

	d.log.WithFields(logrus.Fields{
		"immediate":  len(immediate),
		"historical": len(historical),
		"flaky":      len(report.FlakyTests),
		"tracked":    store.Len(),
	}).Info("flaky detection complete")
	return report
}

// updateHistory records docs through the repository. When persisting fails the
// analysis continues on an in-memory copy.
func (d *Detector) updateHistory(ctx context.Context, docs []results.Document, runID string, now time.Time) *history.Store {
	keep := history.Retention{Days: d.cfg.Detector.HistoryDays, MaxRuns: history.MaxRuns, Now: now}
	timestamp := model.FormatTimestamp(now)

	record := func(s *history.Store) {
		for _, doc := range docs {
			s.Record(doc.Report, runID, timestamp, keep)
		}
	}

	var updated *history.Store
	err := d.repo.Update(ctx, func(s *history.Store) error {
		record(s)
		updated = s
		return nil
	})
	if err == nil {
		return updated
	}

	d.log.WithError(err).Warn("failed to update test history, continuing without persisting")
	if updated != nil {
		return updated
	}
	store, loadErr := d.repo.Load()
	if loadErr != nil || store == nil {
		store = history.NewStore()
	}
	record(store)
	return store
}

func summarize(flakes []model.FlakeRecord, totalTests int) model.FlakySummary {
	s := model.FlakySummary{
		TotalTests: totalTests,
		TotalFlaky: len(flakes),
		BySeverity: make(map[model.Severity]int, len(model.Severities)),
	}
	for _, sev := range model.Severities {
		s.BySeverity[sev] = 0
	}
	for _, f := range flakes {
		if f.HasMethod(model.DetectionImmediate) {
			s.Immediate++
		}
		if f.HasMethod(model.DetectionHistorical) {
			s.Historical++
		}
		if f.QuarantineCandidate {
			s.QuarantineCandidates++
		}
		if f.Severity != "" {
			s.BySeverity[f.Severity]++
		}
	}
	return s
}

func countTests(doc *model.Report) int {
	if doc == nil {
		return 0
	}
	n := 0
	doc.EachSpec(func(spec model.Spec) {
		n += len(spec.Tests)
	})
	return n
}

// observedAt uses the artifact's modification time as the time of the run
func observedAt(a discovery.Artifact, fallback time.Time) time.Time {
	info, err := os.Stat(a.Path)
	if err != nil {
		return fallback
	}
	return info.ModTime()
}
