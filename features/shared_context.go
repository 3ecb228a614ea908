package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drew/flakewatch/internal/cli"
)

// scenarioNow is the fixed clock every scenario runs at
var scenarioNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

// sharedContext holds ALL state for a scenario - used by all step definitions
type sharedContext struct {
	stdout   string
	stderr   string
	exitCode int

	tempDir      string
	artifactsDir string
	env          map[string]string
}

func newSharedContext() *sharedContext {
	return &sharedContext{env: make(map[string]string)}
}

// setup creates the scenario's temp workspace with an empty artifacts directory
func (c *sharedContext) setup() error {
	dir, err := os.MkdirTemp("", "flakewatch-features-*")
	if err != nil {
		return err
	}
	c.tempDir = dir
	c.artifactsDir = filepath.Join(dir, "artifacts")
	return os.MkdirAll(c.artifactsDir, 0o755)
}

// path resolves a scenario-relative path inside the temp workspace
func (c *sharedContext) path(rel string) string {
	return filepath.Join(c.tempDir, filepath.FromSlash(rel))
}

func (c *sharedContext) writeFile(rel, content string) error {
	full := c.path(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), 0o644)
}

// runFlakewatch executes the command tree in-process and records its output
func (c *sharedContext) runFlakewatch(args ...string) error {
	var stdout, stderr bytes.Buffer

	root := cli.NewRootCommand(cli.Options{
		Stdout: &stdout,
		Stderr: &stderr,
		Env: func(key string) (string, bool) {
			v, ok := c.env[key]
			return v, ok
		},
		Now: func() time.Time { return scenarioNow },
	})
	root.SetArgs(append([]string{"--no-color"}, args...))

	c.exitCode = 0
	if err := root.Execute(); err != nil {
		fmt.Fprintf(&stderr, "Error: %v\n", err)
		c.exitCode = 1
	}
	c.stdout = stdout.String()
	c.stderr = stderr.String()
	return nil
}

// runCommandLine splits a step's command line on spaces and substitutes the
// workspace paths {artifacts} and {tmp}
func (c *sharedContext) runCommandLine(line string) error {
	line = strings.ReplaceAll(line, "{artifacts}", c.artifactsDir)
	line = strings.ReplaceAll(line, "{tmp}", c.tempDir)
	return c.runFlakewatch(strings.Fields(line)...)
}

// stdoutJSON decodes stdout into a generic document
func (c *sharedContext) stdoutJSON() (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(c.stdout), &doc); err != nil {
		return nil, fmt.Errorf("stdout is not JSON: %w\nstdout: %s\nstderr: %s", err, c.stdout, c.stderr)
	}
	return doc, nil
}

// lookupPath follows a dotted path such as "summary.totalFlaky" into doc
func lookupPath(doc map[string]any, dotted string) (any, error) {
	var cur any = doc
	for _, part := range strings.Split(dotted, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: %q is not an object", dotted, part)
		}
		cur, ok = m[part]
		if !ok {
			return nil, fmt.Errorf("%s: no field %q", dotted, part)
		}
	}
	return cur, nil
}

// theExecutionShouldSucceed checks that the command succeeded
func (c *sharedContext) theExecutionShouldSucceed() error {
	if c.exitCode != 0 {
		return fmt.Errorf("expected execution to succeed (exit 0), got exit code %d\nstderr: %s", c.exitCode, c.stderr)
	}
	return nil
}

// theExecutionShouldFail checks that the command failed
func (c *sharedContext) theExecutionShouldFail() error {
	if c.exitCode == 0 {
		return fmt.Errorf("expected execution to fail (non-zero exit), got exit code 0\nstdout: %s", c.stdout)
	}
	return nil
}

// theOutputShouldContain checks that stdout contains the expected string (case-insensitive)
func (c *sharedContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(strings.ToLower(c.stdout), strings.ToLower(expected)) {
		return fmt.Errorf("expected output to contain %q, got: %s", expected, c.stdout)
	}
	return nil
}

// theErrorOutputShouldContain checks stderr the same way
func (c *sharedContext) theErrorOutputShouldContain(expected string) error {
	if !strings.Contains(strings.ToLower(c.stderr), strings.ToLower(expected)) {
		return fmt.Errorf("expected error output to contain %q, got: %s", expected, c.stderr)
	}
	return nil
}

// theJSONFieldShouldBe compares a JSON field of stdout with its textual form
func (c *sharedContext) theJSONFieldShouldBe(field, expected string) error {
	doc, err := c.stdoutJSON()
	if err != nil {
		return err
	}
	v, err := lookupPath(doc, field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", field, expected, got)
	}
	return nil
}

// cleanup removes temporary directories
func (c *sharedContext) cleanup() {
	if c.tempDir != "" {
		_ = os.RemoveAll(c.tempDir)
	}
}
