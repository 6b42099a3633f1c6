// Package config holds run configuration. Values come from three layers,
// lowest to highest precedence: built-in defaults, environment variables
// (prefix RECORDFLOW_), an optional YAML config file, and command-line
// flags applied by the caller.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LogConfig      `yaml:"logging"`
}

// PipelineConfig holds pipeline run parameters.
type PipelineConfig struct {
	// Records is the total record count N fed by the producer.
	Records int `envconfig:"RECORDFLOW_RECORDS" default:"500" yaml:"records"`
	// Buffer is the capacity of every pipeline channel.
	Buffer int `envconfig:"RECORDFLOW_BUFFER" default:"5" yaml:"buffer"`
	// Timeout is the supervisor's wall-clock deadline for the whole run.
	Timeout time.Duration `envconfig:"RECORDFLOW_TIMEOUT" default:"5s" yaml:"timeout"`
	// Rate limits the producer in records per second; 0 means unlimited.
	Rate float64 `envconfig:"RECORDFLOW_RATE" default:"0" yaml:"rate"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"RECORDFLOW_LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"RECORDFLOW_LOG_DEV" default:"false" yaml:"development"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the reference configuration: 500 records, channel
// capacity 5, 5 second timeout.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Records: 500,
			Buffer:  5,
			Timeout: 5 * time.Second,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// ApplyFile overlays values from a YAML config file onto cfg.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Pipeline.Records < 0 {
		return fmt.Errorf("records must be >= 0, got %d", c.Pipeline.Records)
	}
	if c.Pipeline.Buffer < 1 {
		return fmt.Errorf("buffer must be >= 1, got %d", c.Pipeline.Buffer)
	}
	if c.Pipeline.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Pipeline.Timeout)
	}
	if c.Pipeline.Rate < 0 {
		return fmt.Errorf("rate must be >= 0, got %v", c.Pipeline.Rate)
	}
	return nil
}
