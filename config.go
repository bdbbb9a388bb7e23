package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	formatPNG   = "png"
	formatChaos = "chaos"
)

// Config holds the host-side settings. The cipher itself has no knobs that
// change its output; these only affect speed, file layout and logging.
type Config struct {
	// Workers bounds substitution goroutines; 0 means one per CPU.
	Workers int `toml:"workers" yaml:"workers"`

	// Format is the scramble output format: "png" or "chaos".
	Format string `toml:"format" yaml:"format"`

	// ZstdLevel is used for .chaos output: fastest, default, better or best.
	ZstdLevel string `toml:"zstd_level" yaml:"zstd_level"`

	Log LogConfig `toml:"log" yaml:"log"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Workers:   0,
		Format:    formatPNG,
		ZstdLevel: "default",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// defaultConfigPath returns $CHAOSIMG_CONFIG or <user config dir>/chaosimg/config.toml.
func defaultConfigPath() string {
	if p := os.Getenv("CHAOSIMG_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "chaosimg", "config.toml")
}

// LoadConfig reads a TOML or YAML file on top of the defaults.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ValidationError is a single bad config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Workers < 0 {
		errs = append(errs, ValidationError{"workers", "must be >= 0"})
	}
	switch c.Format {
	case formatPNG, formatChaos:
	default:
		errs = append(errs, ValidationError{"format", fmt.Sprintf("unsupported output format %q", c.Format)})
	}
	if _, err := parseZstdLevel(c.ZstdLevel); err != nil {
		errs = append(errs, ValidationError{"zstd_level", err.Error()})
	}
	if _, err := parseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{"log.level", err.Error()})
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{"log.format", fmt.Sprintf("unknown log format %q", c.Log.Format)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
