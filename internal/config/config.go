// Package config loads the optional .sbfl.yaml project file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory
// when no explicit path is given.
const DefaultFile = ".sbfl.yaml"

// Config is the complete sbfl configuration.
type Config struct {
	Ingest  IngestConfig  `yaml:"ingest"`
	Output  OutputConfig  `yaml:"output"`
	History HistoryConfig `yaml:"history"`
}

// IngestConfig selects where raw coverage data comes from.
type IngestConfig struct {
	// Source is "logs" or "coverprofile".
	Source string `yaml:"source"`

	// Dir holds the coverage logs or per-test profiles.
	Dir string `yaml:"dir"`

	// TestJSON is the go test -json stream for the coverprofile
	// source.
	TestJSON string `yaml:"test_json"`
}

// OutputConfig controls report rendering and persisted files.
type OutputConfig struct {
	// Dir receives the CSV tables and chart. Empty disables file
	// output.
	Dir string `yaml:"dir"`

	// Format is the stdout report format: "text" or "json".
	Format string `yaml:"format"`

	// Top limits rows per table in text output. Zero shows all.
	Top int `yaml:"top"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Source: "logs",
			Dir:    "CoverageData/NewCoverageData",
		},
		Output: OutputConfig{
			Dir:    "output",
			Format: "text",
			Top:    10,
		},
		History: HistoryConfig{
			Path: ".sbfl/history.db",
		},
	}
}

// Load reads the config file at path on top of DefaultConfig. An
// empty path means DefaultFile, which may be absent; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated fields and ranges.
func (c *Config) Validate() error {
	switch c.Ingest.Source {
	case "logs", "coverprofile":
	default:
		return fmt.Errorf("invalid ingest.source %q: must be 'logs' or 'coverprofile'", c.Ingest.Source)
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output.format %q: must be 'text' or 'json'", c.Output.Format)
	}
	if c.Output.Top < 0 {
		return fmt.Errorf("invalid output.top %d: must be >= 0", c.Output.Top)
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.enabled requires history.path")
	}
	return nil
}
