package results

import (
	"github.com/joshdk/go-junit"

	"github.com/drew/flakewatch/internal/model"
)

// ParseJUnitXML reads a JUnit XML file into the Playwright document shape.
// Uses github.com/joshdk/go-junit for robust parsing of all JUnit XML variants
// Supports: single <testsuite>, <testsuites>, multiple root elements, etc.
//
// Repeated testcases with the same classname and name inside one suite are treated
// as retry attempts of one test, which is how rerun plugins report them.
func ParseJUnitXML(path string) (*model.Report, error) {
	suites, err := junit.IngestFile(path)
	if err != nil {
		return nil, err
	}

	report := &model.Report{}
	for _, s := range suites {
		report.Suites = append(report.Suites, convertSuite(s))
	}
	return report, nil
}

func convertSuite(s junit.Suite) model.Suite {
	out := model.Suite{Title: s.Name, File: s.Package}

	type position struct{ spec, test int }
	specIndex := make(map[string]int)
	testIndex := make(map[string]position)

	for _, tc := range s.Tests {
		specTitle := tc.Classname
		if specTitle == "" {
			specTitle = s.Name
		}

		attempt := model.Attempt{
			Status:   attemptStatus(tc.Status),
			Duration: float64(tc.Duration.Milliseconds()),
		}
		if msg := junitMessage(tc); msg != "" {
			attempt.Error = &model.AttemptError{Message: msg}
		}

		key := specTitle + "::" + tc.Name
		if pos, ok := testIndex[key]; ok {
			test := &out.Specs[pos.spec].Tests[pos.test]
			attempt.Retry = len(test.Results)
			test.Results = append(test.Results, attempt)
			continue
		}

		si, ok := specIndex[specTitle]
		if !ok {
			si = len(out.Specs)
			specIndex[specTitle] = si
			out.Specs = append(out.Specs, model.Spec{Title: specTitle})
		}
		out.Specs[si].Tests = append(out.Specs[si].Tests, model.Test{
			Title:   tc.Name,
			Results: []model.Attempt{attempt},
		})
		testIndex[key] = position{spec: si, test: len(out.Specs[si].Tests) - 1}
	}

	for i := range out.Specs {
		for j := range out.Specs[i].Tests {
			t := &out.Specs[i].Tests[j]
			t.Status = string(testStatus(t.Results))
		}
	}

	for _, child := range s.Suites {
		out.Suites = append(out.Suites, convertSuite(child))
	}
	return out
}

func attemptStatus(s junit.Status) string {
	switch s {
	case junit.StatusPassed:
		return string(model.StatusPassed)
	case junit.StatusSkipped:
		return string(model.StatusSkipped)
	default:
		// failures and errors
		return string(model.StatusFailed)
	}
}

// testStatus derives the test-level outcome: failed if any attempt failed, else
// passed if any attempt passed, else skipped
func testStatus(attempts []model.Attempt) model.TestStatus {
	passed := false
	for _, a := range attempts {
		switch model.TestStatus(a.Status) {
		case model.StatusFailed:
			return model.StatusFailed
		case model.StatusPassed:
			passed = true
		}
	}
	if passed {
		return model.StatusPassed
	}
	return model.StatusSkipped
}

func junitMessage(tc junit.Test) string {
	if tc.Status == junit.StatusPassed || tc.Status == junit.StatusSkipped {
		return ""
	}
	if tc.Message != "" {
		return tc.Message
	}
	if tc.Error != nil {
		return tc.Error.Error()
	}
	return ""
}
