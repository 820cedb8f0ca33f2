// Package config provides configuration loading and management for tractcoords.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Atlas location parameters
	Atlas struct {
		// Filename is the atlas file searched for in the candidate directories
		Filename string `yaml:"filename"`

		// Path, when set, is used directly and the search is skipped
		Path string `yaml:"path"`

		// EnvVar names the variable holding the FSL installation directory
		EnvVar string `yaml:"envVar"`

		// EnvDefault is the FSL directory assumed when EnvVar is unset
		EnvDefault string `yaml:"envDefault"`
	} `yaml:"atlas"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many regions are extracted concurrently
		NumCores int `yaml:"numCores"`

		// Composites enables the derived BCC/CC/IC/CR tracts
		Composites bool `yaml:"composites"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Dir receives relative output files and is created on demand
		Dir string `yaml:"dir"`

		// File is the coordinate table; .db/.sqlite selects the SQLite store
		File string `yaml:"file"`

		// LogLevel is a zerolog level name (debug, info, warn, error)
		LogLevel string `yaml:"logLevel"`

		// Console selects human-readable log output instead of JSON
		Console bool `yaml:"console"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Atlas.Filename = "JHU-ICBM-labels-1mm.nii.gz"
	cfg.Atlas.EnvVar = "FSLDIR"
	cfg.Atlas.EnvDefault = "/usr/share/fsl"

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.Composites = true

	cfg.Output.Dir = "data"
	cfg.Output.File = "jhu_coordinates.csv"
	cfg.Output.LogLevel = "info"
	cfg.Output.Console = true

	return cfg
}

// Validate checks values that YAML cannot constrain
func (c *Config) Validate() error {
	if c.Atlas.Filename == "" && c.Atlas.Path == "" {
		return fmt.Errorf("atlas.filename or atlas.path must be set")
	}
	if c.Output.File == "" {
		return fmt.Errorf("output.file must be set")
	}
	if c.Processing.NumCores < 0 {
		return fmt.Errorf("processing.numCores must not be negative, got %d", c.Processing.NumCores)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses Output.LogLevel. An empty value means info; zerolog would
// otherwise read it as NoLevel and drop every event.
func (c *Config) Level() (zerolog.Level, error) {
	name := strings.TrimSpace(c.Output.LogLevel)
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid output.logLevel %q: %w", c.Output.LogLevel, err)
	}
	if level == zerolog.NoLevel || level == zerolog.Disabled {
		return zerolog.NoLevel, fmt.Errorf("output.logLevel %q would silence all diagnostics", c.Output.LogLevel)
	}
	return level, nil
}

// ErrConfigExists is returned by CreateDefaultConfigFile when the target
// file is already present.
var ErrConfigExists = errors.New("config file already exists")

// LoadConfig reads configPath over the defaults. A missing file yields the
// defaults unchanged; unknown keys are rejected so typos surface early.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as two-space indented YAML, creating parent
// directories as needed.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// CreateDefaultConfigFile writes the defaults to configPath. An existing
// file is left untouched and ErrConfigExists is returned.
func CreateDefaultConfigFile(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, configPath)
	}
	return SaveConfig(DefaultConfig(), configPath)
}
