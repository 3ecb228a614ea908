// Package history keeps the rolling per-test run history that historical flake
// analysis works on.
package history

import (
	"math"
	"time"

	"github.com/drew/flakewatch/internal/model"
	"github.com/drew/flakewatch/internal/results"
)

// MaxRuns is the number of most recent runs kept per test
const MaxRuns = 20

// Retention bounds how much history survives an update
type Retention struct {
	Days    int
	MaxRuns int
	Now     time.Time
}

// Store is the in-memory history document
type Store struct {
	doc model.HistoryDocument
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{doc: model.HistoryDocument{Tests: make(map[string]*model.TestHistory)}}
}

// FromDocument wraps a decoded history document. Null entries are dropped.
func FromDocument(doc model.HistoryDocument) *Store {
	if doc.Tests == nil {
		doc.Tests = make(map[string]*model.TestHistory)
	}
	for key, h := range doc.Tests {
		if h == nil {
			delete(doc.Tests, key)
		}
	}
	return &Store{doc: doc}
}

// Document returns the underlying document for serialization or analysis
func (s *Store) Document() *model.HistoryDocument {
	return &s.doc
}

// Len returns the number of tracked tests
func (s *Store) Len() int {
	return len(s.doc.Tests)
}

// Record appends one run record per (spec, test) pair of doc and prunes each
// touched history. It returns the number of records appended.
func (s *Store) Record(doc *model.Report, runID, timestamp string, keep Retention) int {
	if doc == nil {
		return 0
	}

	recorded := 0
	doc.EachSpec(func(spec model.Spec) {
		for _, test := range spec.Tests {
			title := test.TestTitle(spec)
			key := model.HistoryKey(spec.Title, title)

			h := s.doc.Tests[key]
			if h == nil {
				h = &model.TestHistory{Title: title, File: spec.Title}
				s.doc.Tests[key] = h
			}

			retries := len(test.Results) - 1
			if retries < 0 {
				retries = 0
			}
			h.Runs = append(h.Runs, model.TestRunRecord{
				RunID:     runID,
				Timestamp: timestamp,
				Status:    test.Outcome(),
				Duration:  int64(math.Round(test.TotalDuration())),
				Retries:   retries,
				Error:     results.FirstError(test),
			})
			h.Runs = Prune(h.Runs, keep)
			recorded++
		}
	})
	return recorded
}

// Prune drops runs older than keep.Days before keep.Now, then keeps at most
// keep.MaxRuns of the most recent survivors. Runs with unparseable timestamps are
// dropped.
func Prune(runs []model.TestRunRecord, keep Retention) []model.TestRunRecord {
	maxRuns := keep.MaxRuns
	if maxRuns <= 0 {
		maxRuns = MaxRuns
	}
	cutoff := keep.Now.Add(-time.Duration(keep.Days) * 24 * time.Hour)

	kept := make([]model.TestRunRecord, 0, len(runs))
	for _, r := range runs {
		ts, err := model.ParseTimestamp(r.Timestamp)
		if err != nil || ts.Before(cutoff) {
			continue
		}
		kept = append(kept, r)
	}

	if len(kept) > maxRuns {
		kept = kept[len(kept)-maxRuns:]
	}
	return kept
}
