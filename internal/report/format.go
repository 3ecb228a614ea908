package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/drew/flakewatch/internal/model"
)

// Format selects a report renderer
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatTerminal Format = "terminal"
)

// Formats lists the supported formats, default first
var Formats = []Format{FormatMarkdown, FormatJSON, FormatHTML, FormatTerminal}

// ParseFormat validates a format name; empty selects Markdown
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return FormatMarkdown, nil
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unknown report format %q (expected one of %s)", name, strings.Join(names, ", "))
}

// Options carry renderer settings that do not come from the report itself
type Options struct {
	Now   time.Time
	Width int
	Color bool
	// Source is the raw document rep was decoded from; JSON output keeps its extra fields
	Source []byte
}

// Render writes rep to w in the given format
func Render(w io.Writer, format Format, rep model.FlakyReport, opts Options) error {
	switch format {
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(rep))
		return err
	case FormatJSON:
		var data []byte
		var err error
		if opts.Source != nil {
			data, err = JSONFrom(opts.Source, rep, opts.Now)
		} else {
			data, err = JSON(rep, opts.Now)
		}
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatHTML:
		return HTML(w, rep)
	case FormatTerminal:
		out, err := Terminal(rep, opts.Width, opts.Color)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
