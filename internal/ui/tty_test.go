package ui

import (
	"os"
	"testing"
)

func TestIsTTY(t *testing.T) {
	// Result depends on environment, just verify it doesn't panic
	t.Logf("IsTTY(stdout) = %v", IsTTY(os.Stdout.Fd()))
	t.Logf("IsTTY(stderr) = %v", IsTTY(os.Stderr.Fd()))
}

func TestGetTerminalWidth(t *testing.T) {
	width := GetTerminalWidth()

	// Should be at least 40 (minimum) or default 80
	if width < 40 {
		t.Errorf("Expected width >= 40, got %d", width)
	}
}

func TestIsColorEnabledRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if IsColorEnabledFor(os.Stdout.Fd()) {
		t.Error("Expected stdout colors to be disabled when NO_COLOR is set")
	}
	if IsColorEnabledFor(os.Stderr.Fd()) {
		t.Error("Expected stderr colors to be disabled when NO_COLOR is set")
	}
}
