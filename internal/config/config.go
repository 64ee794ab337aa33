// Package config loads the optional YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/constants"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/presentation/formatter"
	"gopkg.in/yaml.v3"
)

// Config mirrors the command line flags. Flags set explicitly win over
// file values.
type Config struct {
	Output    OutputConfig      `yaml:"output"`
	Recording RecordingConfig   `yaml:"recording"`
	Raster    RasterConfig      `yaml:"raster"`
	Logging   LoggingConfig     `yaml:"logging"`
	Meta      map[string]string `yaml:"meta,omitempty"`
}

// OutputConfig controls where results go.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	Name         string `yaml:"name"`
	Export       string `yaml:"export"`        // pdf, jpg, png
	Format       string `yaml:"format"`        // table, json, csv, summary
	MetadataFile bool   `yaml:"metadata_file"` // also write <name>.json
}

// RecordingConfig describes the trace and the strip layout.
type RecordingConfig struct {
	Frequency     float64       `yaml:"frequency"`
	StripDuration time.Duration `yaml:"strip_duration"`
	StripsPerPage int           `yaml:"strips_per_page"`
	LegendGap     time.Duration `yaml:"legend_gap"`
	Channel       string        `yaml:"channel"`
}

// RasterConfig selects and tunes the rasterizer backend.
type RasterConfig struct {
	Kind        string        `yaml:"kind"` // chrome, native
	ChromeBin   string        `yaml:"chrome_bin"`
	ControlURL  string        `yaml:"control_url"`
	Scale       float64       `yaml:"scale"`
	JPEGQuality int           `yaml:"jpeg_quality"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LoggingConfig controls the log sink.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:    ".",
			Name:   constants.DefaultOutputName,
			Export: constants.DefaultExport,
			Format: "table",
		},
		Recording: RecordingConfig{
			Frequency:     constants.DefaultSamplingRate,
			StripDuration: constants.DefaultStripDuration,
			StripsPerPage: constants.DefaultStripsPerPage,
			LegendGap:     constants.DefaultLegendGap,
		},
		Raster: RasterConfig{
			Kind:        constants.DefaultRasterizer,
			Scale:       2.0,
			JPEGQuality: 90,
			Timeout:     time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(HomeDir(), "logs", "app.log"),
		},
	}
}

// HomeDir is the per-user state directory, ~/.ecg-graph.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ecg-graph"
	}
	return filepath.Join(home, ".ecg-graph")
}

// DefaultConfigPath returns ~/.ecg-graph/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	if _, err := model.ParseExportFormat(c.Output.Export); err != nil {
		return err
	}
	if _, err := formatter.NewFormatter(c.Output.Format); err != nil {
		return err
	}
	if c.Recording.Frequency <= 0 {
		return fmt.Errorf("%w: frequency must be positive", model.ErrInvalidInput)
	}
	if c.Recording.StripDuration <= 0 {
		return fmt.Errorf("%w: strip duration must be positive", model.ErrInvalidInput)
	}
	if c.Recording.StripsPerPage <= 0 {
		return fmt.Errorf("%w: strips per page must be positive", model.ErrInvalidInput)
	}
	if c.Recording.LegendGap < 0 {
		return fmt.Errorf("%w: legend gap must not be negative", model.ErrInvalidInput)
	}
	return nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
