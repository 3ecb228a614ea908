package model

import (
	"bytes"
	"encoding/json"
)

// Report is a Playwright JSON reporter document
type Report struct {
	Suites []Suite `json:"suites"`
}

// Suite groups specs; suites may nest
type Suite struct {
	Title  string  `json:"title"`
	File   string  `json:"file,omitempty"`
	Specs  []Spec  `json:"specs"`
	Suites []Suite `json:"suites,omitempty"`
}

// Spec is a single test declaration which may run in several projects
type Spec struct {
	Title string `json:"title"`
	File  string `json:"file,omitempty"`
	Tests []Test `json:"tests"`
}

// Test is one execution of a spec, with one result per attempt
type Test struct {
	Title   string    `json:"title"`
	Status  string    `json:"status"`
	Results []Attempt `json:"results"`
}

// Attempt is the outcome of a single try of a test
type Attempt struct {
	Status   string        `json:"status"`
	Duration float64       `json:"duration"`
	Retry    int           `json:"retry,omitempty"`
	Error    *AttemptError `json:"error,omitempty"`
}

// AttemptError accepts both a plain string and Playwright's {message, stack} object
type AttemptError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler
func (e *AttemptError) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.Message)
	}
	type plain AttemptError
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = AttemptError(p)
	return nil
}

// Text returns the message, falling back to the stack
func (e *AttemptError) Text() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Stack
}

// EachSpec visits every spec of the report depth first, a suite's own specs before
// its child suites
func (r *Report) EachSpec(fn func(Spec)) {
	for _, s := range r.Suites {
		walkSuite(s, fn)
	}
}

func walkSuite(s Suite, fn func(Spec)) {
	for _, spec := range s.Specs {
		fn(spec)
	}
	for _, child := range s.Suites {
		walkSuite(child, fn)
	}
}

// TestTitle returns the test's title, or the spec title when the test has none
func (t Test) TestTitle(spec Spec) string {
	if t.Title != "" {
		return t.Title
	}
	return spec.Title
}

// Outcome returns the normalized test-level status
func (t Test) Outcome() TestStatus {
	return NormalizeStatus(t.Status)
}

// TotalDuration sums the duration of every attempt in milliseconds
func (t Test) TotalDuration() float64 {
	var total float64
	for _, r := range t.Results {
		total += r.Duration
	}
	return total
}

// FirstFailure returns the first attempt with status failed, if any
func (t Test) FirstFailure() *Attempt {
	for i := range t.Results {
		if t.Results[i].Status == string(StatusFailed) {
			return &t.Results[i]
		}
	}
	return nil
}
