// Package logging provides tests for logger construction and run log files.
package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"DEBUG", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormatter(t *testing.T) {
	tests := []struct {
		in   string
		want log.Formatter
	}{
		{"json", log.JSONFormatter},
		{"logfmt", log.LogfmtFormatter},
		{"text", log.TextFormatter},
		{"", log.TextFormatter},
	}
	for _, tt := range tests {
		if got := ParseFormatter(tt.in); got != tt.want {
			t.Errorf("ParseFormatter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Run("respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewFromConfig(&buf, "warn", "text", false, false)

		logger.Info("hidden")
		logger.Warn("shown", "key", "value")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("info message logged at warn level: %q", out)
		}
		if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
			t.Errorf("expected warn message with fields, got %q", out)
		}
	})

	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewFromConfig(&buf, "debug", "json", false, false)
		logger.Debug("hello", "count", 2)

		out := buf.String()
		if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"count":2`) {
			t.Errorf("unexpected json output: %q", out)
		}
	})
}

func TestDiscard(t *testing.T) {
	// Must not panic.
	Discard().Error("dropped")
}

func TestNewRunLog(t *testing.T) {
	t.Run("creates file in nested dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs", "nested")

		rl, err := NewRunLog(dir)
		if err != nil {
			t.Fatalf("NewRunLog failed: %v", err)
		}
		defer rl.Close()

		if rl.RunID == "" {
			t.Error("expected RunID to be set")
		}
		if !strings.HasPrefix(rl.Path, dir) || !strings.HasSuffix(rl.Path, ".log") {
			t.Errorf("unexpected path %q", rl.Path)
		}
		if _, err := os.Stat(rl.Path); err != nil {
			t.Errorf("log file not created: %v", err)
		}

		logger := New(rl.Writer(), DefaultOptions())
		logger.Info("written to file")
		data, err := os.ReadFile(rl.Path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Contains(data, []byte("written to file")) {
			t.Errorf("log file content = %q", data)
		}
	})

	t.Run("empty dir returns error", func(t *testing.T) {
		if _, err := NewRunLog(""); err == nil {
			t.Fatal("expected error for empty dir")
		}
	})

	t.Run("close nil run log", func(t *testing.T) {
		var rl *RunLog
		if err := rl.Close(); err != nil {
			t.Errorf("Close on nil: %v", err)
		}
	})
}

func TestFindLatestLog(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		got, err := FindLatestLog(filepath.Join(t.TempDir(), "nope"))
		if err != nil || got != "" {
			t.Errorf("FindLatestLog = %q, %v; want empty, nil", got, err)
		}
	})

	t.Run("picks newest log file", func(t *testing.T) {
		dir := t.TempDir()
		old := filepath.Join(dir, "old.log")
		newer := filepath.Join(dir, "new.log")
		other := filepath.Join(dir, "notes.txt")
		for _, p := range []string{old, newer, other} {
			if err := os.WriteFile(p, []byte(p), 0644); err != nil {
				t.Fatal(err)
			}
		}
		past := time.Now().Add(-time.Hour)
		if err := os.Chtimes(old, past, past); err != nil {
			t.Fatal(err)
		}
		future := time.Now().Add(time.Hour)
		if err := os.Chtimes(other, future, future); err != nil {
			t.Fatal(err)
		}

		got, err := FindLatestLog(dir)
		if err != nil {
			t.Fatal(err)
		}
		if got != newer {
			t.Errorf("FindLatestLog = %q, want %q", got, newer)
		}

		var buf bytes.Buffer
		if err := CopyLog(&buf, got); err != nil {
			t.Fatal(err)
		}
		if buf.String() != newer {
			t.Errorf("CopyLog = %q", buf.String())
		}
	})
}
