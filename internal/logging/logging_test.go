package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// captureLogOutput points the global logger at a buffer for the duration of f.
func captureLogOutput(level Level, format Format, f func()) string {
	var buf bytes.Buffer
	InitLoggerTo(&buf, level, format)
	defer InitLogger(LevelInfo, FormatText)
	f()
	return buf.String()
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  Level
		format Format
	}{
		{"Debug level JSON format", LevelDebug, FormatJSON},
		{"Info level JSON format", LevelInfo, FormatJSON},
		{"Warn level Text format", LevelWarn, FormatText},
		{"Error level Text format", LevelError, FormatText},
		{"Default level (invalid value)", Level(999), FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitLogger(tt.level, tt.format)
			if defaultLogger == nil {
				t.Error("Expected logger to be initialized, got nil")
			}
		})
	}
	InitLogger(LevelInfo, FormatText)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat("Text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(Text) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestLevelFiltering(t *testing.T) {
	output := captureLogOutput(LevelWarn, FormatText, func() {
		InfoContext(context.Background(), "hidden message")
		WarnContext(context.Background(), "shown message")
	})
	if strings.Contains(output, "hidden message") {
		t.Error("Expected info message to be filtered at warn level")
	}
	if !strings.Contains(output, "shown message") {
		t.Error("Expected warn message in output")
	}
}

func TestRunID(t *testing.T) {
	ctx := context.Background()
	if got := GetRunID(ctx); got != "" {
		t.Errorf("GetRunID on empty context = %q", got)
	}

	ctx = WithRunID(ctx, "run-123")
	if got := GetRunID(ctx); got != "run-123" {
		t.Errorf("GetRunID = %q, want run-123", got)
	}

	output := captureLogOutput(LevelDebug, FormatJSON, func() {
		InfoContext(ctx, "with run")
	})
	if !strings.Contains(output, `"run_id":"run-123"`) {
		t.Errorf("Expected run_id in output, got %s", output)
	}
}

func TestLoggerFromContextWithoutRunID(t *testing.T) {
	output := captureLogOutput(LevelDebug, FormatJSON, func() {
		DebugContext(context.Background(), "plain")
	})
	if strings.Contains(output, "run_id") {
		t.Errorf("Expected no run_id, got %s", output)
	}
}

func TestHelpers(t *testing.T) {
	output := captureLogOutput(LevelDebug, FormatJSON, func() {
		DebugContext(context.Background(), "debug message")
		ErrorContext(context.Background(), "error message", "key", "value")
		WarnContext(context.Background(), "warn message")
		ErrorContext(context.Background(), "error context message")
	})
	for _, want := range []string{"debug message", "error message", "warn message", "error context message", `"key":"value"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
}

func TestLexiconRead(t *testing.T) {
	output := captureLogOutput(LevelInfo, FormatJSON, func() {
		LexiconRead(context.Background(), "dict.db", 1200, 2_500_000, "header_lines", 1)
	})
	for _, want := range []string{"lexicon_read", `"path":"dict.db"`, `"records":1200`, `"size":"2.5 MB"`, `"header_lines":1`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got %s", want, output)
		}
	}
}

func TestLexiconWritten(t *testing.T) {
	output := captureLogOutput(LevelInfo, FormatJSON, func() {
		LexiconWritten(context.Background(), "out.db", 999)
	})
	if !strings.Contains(output, `"size":"999 B"`) {
		t.Errorf("Expected humanized size, got %s", output)
	}
}

func TestCheckSummary(t *testing.T) {
	output := captureLogOutput(LevelInfo, FormatJSON, func() {
		CheckSummary(context.Background(), "links", 0, time.Second)
	})
	if !strings.Contains(output, `"level":"INFO"`) {
		t.Errorf("Expected clean check at info level, got %s", output)
	}

	output = captureLogOutput(LevelInfo, FormatJSON, func() {
		CheckSummary(context.Background(), "links", 1234, time.Second)
	})
	if !strings.Contains(output, `"level":"WARN"`) {
		t.Errorf("Expected problems at warn level, got %s", output)
	}
	if !strings.Contains(output, `"problems":"1,234"`) {
		t.Errorf("Expected humanized count, got %s", output)
	}
	if !strings.Contains(output, `"duration_ms":1000`) {
		t.Errorf("Expected duration_ms, got %s", output)
	}
}

func TestSnapshotTaken(t *testing.T) {
	output := captureLogOutput(LevelInfo, FormatJSON, func() {
		SnapshotTaken(context.Background(), "dict.db", "abc", 2048)
	})
	for _, want := range []string{"snapshot_taken", `"sha256":"abc"`, `"size":"2.0 kB"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got %s", want, output)
		}
	}
}

func TestOperationError(t *testing.T) {
	output := captureLogOutput(LevelInfo, FormatJSON, func() {
		OperationError(context.Background(), "write", errors.New("disk full"), "path", "x.db")
	})
	for _, want := range []string{"operation_error", `"error":"disk full"`, `"path":"x.db"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got %s", want, output)
		}
	}
}

func TestTimestampFormat(t *testing.T) {
	output := captureLogOutput(LevelInfo, FormatJSON, func() {
		InfoContext(context.Background(), "timestamp test")
	})
	start := strings.Index(output, `"time":"`)
	if start < 0 {
		t.Fatalf("Expected time attribute, got %s", output)
	}
	rest := output[start+len(`"time":"`):]
	ts := rest[:strings.Index(rest, `"`)]
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("Expected RFC3339 timestamp, got %q", ts)
	}
}

func TestInit(t *testing.T) {
	if defaultLogger == nil {
		t.Error("Expected defaultLogger to be initialized by init()")
	}
}
