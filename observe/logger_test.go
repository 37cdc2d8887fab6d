package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

// TestLogger_JSONOutput verifies entries carry message, level and fields.
func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", "json", &buf)

	logger.Info(context.Background(), "cache restored", F("cache", "fetch.tags"), F("entries", 3))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	entry := lines[0]
	if entry["msg"] != "cache restored" || entry["level"] != "INFO" {
		t.Errorf("entry = %v", entry)
	}
	if entry["cache"] != "fetch.tags" || entry["entries"] != float64(3) {
		t.Errorf("fields missing: %v", entry)
	}
}

// TestLogger_LevelFiltering verifies entries below the level are dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", "json", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %s", len(lines), buf.String())
	}
}

// TestLogger_Redaction verifies sensitive keys never reach the output.
func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", "json", &buf).With(F("redis_url", "redis://:pw@host"))

	logger.Info(context.Background(), "connect", F("password", "hunter2"), F("user", "ann"))

	out := buf.String()
	if strings.Contains(out, "hunter2") || strings.Contains(out, "pw@host") {
		t.Errorf("secret leaked: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") || !strings.Contains(out, "ann") {
		t.Errorf("unexpected output: %s", out)
	}
}

// TestLogger_ErrorField verifies error values are rendered as strings.
func TestLogger_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter("info", "json", &buf).Error(context.Background(), "failed", F("error", errors.New("boom")))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["error"] != "boom" {
		t.Errorf("entry = %v", lines)
	}
}

// TestLogger_TextFormat verifies the console handler renders plain text.
func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter("info", "text", &buf).Info(context.Background(), "hello", F("kind", "tag"))

	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "kind=tag") {
		t.Errorf("text output = %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("colors written to a non-terminal: %q", out)
	}
}

// TestParseLogLevel verifies level parsing and slog mapping.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		slog slog.Level
	}{
		{"debug", LevelDebug, slog.LevelDebug},
		{"info", LevelInfo, slog.LevelInfo},
		{"warn", LevelWarn, slog.LevelWarn},
		{"error", LevelError, slog.LevelError},
		{"bogus", LevelInfo, slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseLogLevel(tt.in)
			if got != tt.want || got.Slog() != tt.slog {
				t.Errorf("ParseLogLevel(%q) = %v (%v)", tt.in, got, got.Slog())
			}
		})
	}
}

// TestFromSlog verifies wrapping an existing slog logger.
func TestFromSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := FromSlog(slog.New(slog.NewJSONHandler(&buf, nil)))
	logger.With(F("a", 1)).Info(context.Background(), "x")
	if !strings.Contains(buf.String(), `"a":1`) {
		t.Errorf("output = %s", buf.String())
	}

	if FromSlog(nil) == nil {
		t.Error("FromSlog(nil) = nil")
	}
}

// TestNopLogger verifies the no-op logger is safe to use.
func TestNopLogger(t *testing.T) {
	l := NopLogger()
	l.With(F("a", 1)).Error(context.Background(), "ignored")
}
