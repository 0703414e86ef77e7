package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetLineAndColumn(t *testing.T) {
	src := "set x to 1\nprint(y)\n  é z"
	tests := []struct {
		pos        int
		line, col  int
		descriptor string
	}{
		{0, 1, 1, "start"},
		{4, 1, 5, "x"},
		{11, 2, 1, "print"},
		{17, 2, 7, "y"},
		{22, 3, 3, "é"},
		{25, 3, 5, "z after a two-byte rune"},
	}

	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			line, col := GetLineAndColumn(src, tt.pos)
			if line != tt.line || col != tt.col {
				t.Errorf("pos %d: expected %d:%d, got %d:%d", tt.pos, tt.line, tt.col, line, col)
			}
		})
	}
}

func TestGetContextLines(t *testing.T) {
	src := "a\nb\nc\nset d to x"
	got := GetContextLines(src, 4, 10)
	expected := "" +
		"       2 | b\n" +
		"       3 | c\n" +
		"  >    4 | set d to x\n" +
		strings.Repeat(" ", 20) + "^ here"
	if got != expected {
		t.Errorf("unexpected context:\n%s\nexpected:\n%s", got, expected)
	}

	if GetContextLines(src, 9, 1) != "" {
		t.Errorf("line past the end should render nothing")
	}

	first := GetContextLines("oops", 1, 1)
	if !strings.HasPrefix(first, "  >    1 | oops\n") {
		t.Errorf("unexpected first-line context %q", first)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	path := writeConfig(t, "tasklang.yaml", "log_level: debug\nstrict: true\nbatch_workers: 8\nhistory: runs.db\n")

	cfg := Configuration{Version: "1.0.0", LogLevel: "error"}
	if err := LoadConfigFile(path, &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" || !cfg.Strict || cfg.BatchWorkers != 8 || cfg.HistoryDSN != "runs.db" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Version != "1.0.0" {
		t.Errorf("build info must survive decoding, got %q", cfg.Version)
	}
}

func TestLoadConfigFileTOML(t *testing.T) {
	path := writeConfig(t, "tasklang.toml", "log_level = \"info\"\ndebug_ast_txt = true\n")

	cfg := Configuration{BatchWorkers: 2}
	if err := LoadConfigFile(path, &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "info" || !cfg.DebugTxtAST || cfg.BatchWorkers != 2 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		contents string
		message  string
	}{
		{"unknown yaml key", "c.yaml", "colour: red\n", "parse"},
		{"unknown toml key", "c.toml", "colour = \"red\"\n", "unknown key"},
		{"bad extension", "c.json", "{}", "unsupported file type"},
		{"bad log level", "c.yml", "log_level: loud\n", "unknown log level"},
		{"negative workers", "c.toml", "batch_workers = -1\n", "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Configuration
			err := LoadConfigFile(writeConfig(t, tt.file, tt.contents), &cfg)
			if err == nil || !strings.Contains(err.Error(), tt.message) {
				t.Errorf("expected error containing %q, got %v", tt.message, err)
			}
		})
	}

	var cfg Configuration
	if err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Errorf("expected error for a missing file")
	}
}

func TestWorkers(t *testing.T) {
	if got := (&Configuration{}).Workers(); got != DefaultBatchWorkers {
		t.Errorf("expected default %d, got %d", DefaultBatchWorkers, got)
	}
	if got := (&Configuration{BatchWorkers: 3}).Workers(); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func writeConfig(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
