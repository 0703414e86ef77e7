package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"reflect"
	"tasklang/internal/hostio"
	"testing"
)

func TestLogLevelFromString(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelError,
	}
	for input, expected := range tests {
		if got := logLevelFromString(input); got != expected {
			t.Errorf("%s: expected %v, got %v", input, expected, got)
		}
	}
	if logLevelFromString("none") <= slog.LevelError {
		t.Errorf("none should silence errors too")
	}
}

func TestRecordingIO(t *testing.T) {
	buf := hostio.NewBuffer("answer")
	rec := &recordingIO{IO: buf}

	rec.Print("one")
	if got := rec.Readline("q?"); got != "answer" {
		t.Errorf("expected readline to pass through, got %q", got)
	}
	rec.Print("two")

	if !reflect.DeepEqual(rec.lines, []string{"one", "two"}) {
		t.Errorf("unexpected recorded lines %q", rec.lines)
	}
	if !reflect.DeepEqual(buf.Output(), []string{"one", "two"}) {
		t.Errorf("unexpected forwarded lines %q", buf.Output())
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("[1:1] boom\n  context"); got != "[1:1] boom" {
		t.Errorf("unexpected %q", got)
	}
	if got := firstLine("single"); got != "single" {
		t.Errorf("unexpected %q", got)
	}
}

func TestOpenHistory(t *testing.T) {
	ctx := context.Background()

	history, err := openHistory(ctx, filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer history.Close()
	if runs, err := history.Recent(ctx, 1); err != nil || len(runs) != 0 {
		t.Errorf("expected a migrated empty history, got %v, %v", runs, err)
	}

	missing := filepath.Join(t.TempDir(), "no", "such", "dir", "runs.db")
	if history, err := openHistory(ctx, missing); err == nil || history != nil {
		t.Errorf("expected the failed migration to return no store, got %v, %v", history, err)
	}
}
