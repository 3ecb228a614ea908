package ui

import "github.com/drew/flakewatch/internal/model"

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[94m" // Bright blue - more readable on dark backgrounds
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"
)

// Colors holds all color functions
type Colors struct {
	enabled bool
}

// NewColors creates a new Colors instance
func NewColors(enabled bool) *Colors {
	return &Colors{enabled: enabled}
}

func (c *Colors) wrap(code, s string) string {
	if !c.enabled {
		return s
	}
	return code + s + ColorReset
}

// Red returns red colored text
func (c *Colors) Red(s string) string { return c.wrap(ColorRed, s) }

// Green returns green colored text
func (c *Colors) Green(s string) string { return c.wrap(ColorGreen, s) }

// Yellow returns yellow colored text
func (c *Colors) Yellow(s string) string { return c.wrap(ColorYellow, s) }

// Blue returns blue colored text
func (c *Colors) Blue(s string) string { return c.wrap(ColorBlue, s) }

// Gray returns gray colored text
func (c *Colors) Gray(s string) string { return c.wrap(ColorGray, s) }

// Bold returns bold text
func (c *Colors) Bold(s string) string { return c.wrap(ColorBold, s) }

// SeverityColor returns colored text based on severity
func (c *Colors) SeverityColor(severity model.Severity, text string) string {
	switch severity {
	case model.SeverityHigh:
		return c.Red(text)
	case model.SeverityMedium:
		return c.Yellow(text)
	case model.SeverityLow:
		return c.Green(text)
	default:
		return c.Gray(text)
	}
}

// StatusColor returns colored text based on the overall CI status
func (c *Colors) StatusColor(status model.OverallStatus, text string) string {
	switch status {
	case model.OverallSuccess:
		return c.Green(text)
	case model.OverallFailure:
		return c.Red(text)
	default:
		return text
	}
}

// StatusSymbol returns a colored symbol for the overall CI status
func (c *Colors) StatusSymbol(status model.OverallStatus) string {
	switch status {
	case model.OverallSuccess:
		return c.Green("✓")
	case model.OverallFailure:
		return c.Red("✗")
	default:
		return " "
	}
}
