package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"go.uber.org/multierr"
	yaml "gopkg.in/yaml.v3"

	"vpui/pkg/text"
)

//go:embed default.yaml
var defaultConfig []byte

type (
	ViewportConfig struct {
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`
	}

	PipelineConfig struct {
		MaxRestarts int `yaml:"max_restarts"`
	}

	ImagesConfig struct {
		Workers int    `yaml:"workers"`
		BaseDir string `yaml:"base_dir"`
	}

	Config struct {
		Version  int             `yaml:"version"`
		Viewport ViewportConfig  `yaml:"viewport"`
		Fonts    text.FontConfig `yaml:"fonts"`
		Pipeline PipelineConfig  `yaml:"pipeline"`
		Images   ImagesConfig    `yaml:"images"`
		Logging  LoggingConfig   `yaml:"logging"`
	}
)

func unmarshalConfig(data []byte, cfg *Config) (*Config, error) {
	// Unknown keys are errors, so yaml.Unmarshal cannot be used directly.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := unmarshalConfig(defaultConfig, &Config{})
	if err != nil {
		panic(err) // embedded file is broken
	}
	return cfg
}

// Load reads the file at path on top of the built-in defaults. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if cfg, err = unmarshalConfig(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration file %s: %w", path, err)
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	var err error
	if cfg.Version != 1 {
		err = multierr.Append(err, fmt.Errorf("unsupported version %d", cfg.Version))
	}
	if cfg.Viewport.Width <= 0 || cfg.Viewport.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("viewport must be positive, got %gx%g", cfg.Viewport.Width, cfg.Viewport.Height))
	}
	if cfg.Pipeline.MaxRestarts < 1 {
		err = multierr.Append(err, fmt.Errorf("pipeline.max_restarts must be at least 1, got %d", cfg.Pipeline.MaxRestarts))
	}
	if cfg.Images.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("images.workers must be at least 1, got %d", cfg.Images.Workers))
	}
	return multierr.Append(err, cfg.Logging.validate())
}

// Dump returns cfg as YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
