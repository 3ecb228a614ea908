package report

import (
	"fmt"

	"github.com/charmbracelet/glamour"

	"github.com/drew/flakewatch/internal/model"
)

// Terminal renders the Markdown report for a terminal of the given width.
// Without color the plain notty style is used.
func Terminal(rep model.FlakyReport, width int, color bool) (string, error) {
	style := glamour.WithAutoStyle()
	if !color {
		style = glamour.WithStandardStyle("notty")
	}

	renderer, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create terminal renderer: %w", err)
	}

	out, err := renderer.Render(Markdown(rep))
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return out, nil
}
