// Package discovery finds CI result and health-check artifacts under a directory.
package discovery

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind identifies what an artifact file contains
type Kind string

const (
	KindResults     Kind = "results"
	KindHealthCheck Kind = "health-check"
)

// Format is the on-disk encoding of a result artifact
type Format string

const (
	FormatJSON  Format = "json"
	FormatJUnit Format = "junit"
)

// candidatePattern selects every file that looks like an artifact; names are then
// checked strictly so near misses can be reported
const candidatePattern = "**/{results-*,health-check-*}"

var (
	resultsRe     = regexp.MustCompile(`^results-([^-]+)-(.+)\.(json|xml)$`)
	healthCheckRe = regexp.MustCompile(`^health-check-(.+)\.json$`)
)

// Artifact is one discovered file
type Artifact struct {
	Path        string
	Name        string
	Kind        Kind
	Format      Format
	Environment string
	TestType    string
}

// Result holds discovered artifacts plus the files that looked like artifacts but
// did not match the naming pattern
type Result struct {
	Artifacts []Artifact
	Ignored   []string
}

// Results returns only the result artifacts
func (r Result) Results() []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts {
		if a.Kind == KindResults {
			out = append(out, a)
		}
	}
	return out
}

// Classify parses an artifact file name. ok is false when name is not an artifact.
func Classify(name string) (Artifact, bool) {
	if m := resultsRe.FindStringSubmatch(name); m != nil {
		format := FormatJSON
		if m[3] == "xml" {
			format = FormatJUnit
		}
		return Artifact{
			Name:        name,
			Kind:        KindResults,
			Format:      format,
			Environment: m[1],
			TestType:    m[2],
		}, true
	}
	if m := healthCheckRe.FindStringSubmatch(name); m != nil {
		return Artifact{
			Name:        name,
			Kind:        KindHealthCheck,
			Format:      FormatJSON,
			Environment: m[1],
		}, true
	}
	return Artifact{}, false
}

// Discover walks dir recursively and returns its artifacts sorted by path
func Discover(dir string) (Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Result{}, err
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("%s is not a directory", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), candidatePattern, doublestar.WithFilesOnly())
	if err != nil {
		return Result{}, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(matches)

	var result Result
	for _, rel := range matches {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		name := path.Base(rel)

		artifact, ok := Classify(name)
		if !ok {
			// lock files and the like are expected neighbours, not mistakes
			if !strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".xml") {
				continue
			}
			result.Ignored = append(result.Ignored, full)
			continue
		}
		artifact.Path = full
		result.Artifacts = append(result.Artifacts, artifact)
	}

	return result, nil
}
