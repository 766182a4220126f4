package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	logger := slog.New(newPrettyHandler(&buf, levelVar, false))

	logger.Info("run started",
		String(FieldComponent, "scheduler"),
		String(FieldDate, "2024-10-31"),
		Int("queued", 2),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO scheduler: run started") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "date=2024-10-31") || !strings.Contains(line, "queued=2") {
		t.Fatalf("missing attrs in line: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	logger := slog.New(newPrettyHandler(&buf, levelVar, false))

	logger.Warn("stale lock", String("details", "holder 4242 is gone"))

	if !strings.Contains(buf.String(), `details="holder 4242 is gone"`) {
		t.Fatalf("expected quoted attr, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	handler := newPrettyHandler(&buf, levelVar, false)

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be filtered at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error should pass at warn level")
	}
}

func TestNoopHandlerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("ignored", Error(nil))
}
