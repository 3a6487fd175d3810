package logger

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestNew_DefaultLevel(t *testing.T) {
	log := New()
	if log.GetLevel() != slog.LevelInfo {
		t.Errorf("expected default level info, got %v", log.GetLevel())
	}
}

func TestSetLevel(t *testing.T) {
	log := NewWithLevel(slog.LevelInfo)
	log.SetLevel(slog.LevelDebug)
	if log.GetLevel() != slog.LevelDebug {
		t.Errorf("expected level debug after SetLevel, got %v", log.GetLevel())
	}
}

func TestRequestLogging_Toggle(t *testing.T) {
	log := New()
	if log.IsRequestLoggingEnabled() {
		t.Error("request logging should be disabled by default")
	}

	log.EnableRequestLogging()
	if !log.IsRequestLoggingEnabled() {
		t.Error("request logging should be enabled after EnableRequestLogging")
	}

	log.DisableRequestLogging()
	if log.IsRequestLoggingEnabled() {
		t.Error("request logging should be disabled after DisableRequestLogging")
	}
}
