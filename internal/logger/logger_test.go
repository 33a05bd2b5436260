package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	l := NewWithWriter(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown", "url", "https://example.com")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %s", out)
	}

	if !strings.Contains(out, "shown") || !strings.Contains(out, "url=https://example.com") {
		t.Errorf("warn message missing from output: %s", out)
	}

	buf.Reset()
	l.SetLevel("debug")
	l.With("component", "test").Debug("now visible")

	if !strings.Contains(buf.String(), "component=test") {
		t.Errorf("debug message with attrs missing after SetLevel: %s", buf.String())
	}
}

func TestNewFileLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	l, err := NewFileLogger(dir, "info")
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	l.Info("written to file")

	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}

	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file content = %q", string(data))
	}
}
