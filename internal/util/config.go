package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const DefaultBatchWorkers = 4

type Configuration struct {
	Version   string `yaml:"-" toml:"-"`
	BuildDate string `yaml:"-" toml:"-"`
	Commit    string `yaml:"-" toml:"-"`

	LogLevel     string `yaml:"log_level" toml:"log_level"`
	LogFile      string `yaml:"log_file" toml:"log_file"`
	HistoryDSN   string `yaml:"history" toml:"history"`
	Strict       bool   `yaml:"strict" toml:"strict"`
	DebugJSONAST bool   `yaml:"debug_ast" toml:"debug_ast"`
	DebugTxtAST  bool   `yaml:"debug_ast_txt" toml:"debug_ast_txt"`
	BatchWorkers int    `yaml:"batch_workers" toml:"batch_workers"`
}

// LoadConfigFile decodes path over cfg. The format follows the extension:
// .yaml/.yml or .toml. Keys missing from the file leave cfg untouched.
func LoadConfigFile(path string, cfg *Configuration) error {
	if path == "" {
		return fmt.Errorf("config: empty path")
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}

	case ".toml":
		meta, err := toml.NewDecoder(file).Decode(cfg)
		if err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("config: parse %s: unknown key %q", path, undecoded[0].String())
		}

	default:
		return fmt.Errorf("config: unsupported file type %q (want .yaml, .yml or .toml)", ext)
	}

	return cfg.Validate()
}

func (c *Configuration) Validate() error {
	if c.BatchWorkers < 0 {
		return fmt.Errorf("config: batch_workers must not be negative, got %d", c.BatchWorkers)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error", "none":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}

// Workers returns the batch parallelism, falling back to DefaultBatchWorkers.
func (c *Configuration) Workers() int {
	if c.BatchWorkers <= 0 {
		return DefaultBatchWorkers
	}
	return c.BatchWorkers
}
