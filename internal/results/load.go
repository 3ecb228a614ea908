package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/drew/flakewatch/internal/discovery"
	"github.com/drew/flakewatch/internal/model"
)

// Document is a parsed result artifact
type Document struct {
	Artifact discovery.Artifact
	Report   *model.Report
}

// ParseJSON reads a Playwright JSON result file
func ParseJSON(path string) (*model.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return &report, nil
}

// Load parses one artifact according to its format
func Load(a discovery.Artifact) (*model.Report, error) {
	switch a.Format {
	case discovery.FormatJUnit:
		return ParseJUnitXML(a.Path)
	default:
		return ParseJSON(a.Path)
	}
}

// LoadAll parses artifacts with at most workers files in flight. Documents are
// returned in the order of artifacts; files that fail to parse are left out and
// reported together in the returned error.
func LoadAll(artifacts []discovery.Artifact, workers int) ([]Document, error) {
	if workers < 1 {
		workers = 1
	}

	reports := make([]*model.Report, len(artifacts))
	errs := make([]error, len(artifacts))

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, a := range artifacts {
		i, a := i, a
		g.Go(func() error {
			reports[i], errs[i] = Load(a)
			return nil
		})
	}
	_ = g.Wait()

	var docs []Document
	var result *multierror.Error
	for i, a := range artifacts {
		if errs[i] != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", a.Name, errs[i]))
			continue
		}
		docs = append(docs, Document{Artifact: a, Report: reports[i]})
	}

	return docs, result.ErrorOrNil()
}

// FileErrors splits an error returned by LoadAll into its per-file errors
func FileErrors(err error) []error {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.WrappedErrors()
	}
	return []error{err}
}
