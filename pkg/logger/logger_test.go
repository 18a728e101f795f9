package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogUsableBeforeSetup(t *testing.T) {
	// The package-level logger must work without Setup having run,
	// since services log during tests and init paths.
	assert.NotNil(t, Log)
	assert.NotPanics(t, func() {
		Debug("debug message", "key", "value")
		Info("info message")
		Warn("warn message")
		Error("error message", "error", assert.AnError)
	})
}

func TestSetupReplacesGlobal(t *testing.T) {
	before := Log
	Setup("development")
	assert.NotNil(t, Log)
	assert.NotSame(t, before, Log)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.input), "input %q", tt.input)
	}
}
