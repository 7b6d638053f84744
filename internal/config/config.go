// Package config loads repixelator settings from a TOML file.
//
// Every field has a default, so a missing file or a partial file is fine.
// Command-line flags take precedence over anything loaded here.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ironsheep/repixelator/internal/grid"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// DefaultOutputPattern names batch outputs after their input stem.
const DefaultOutputPattern = "%s_converted.png"

// Config is the root of the configuration file.
type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Output   OutputConfig   `toml:"output"`

	// Workers bounds concurrent frame resizes for animations.
	Workers int `toml:"workers"`

	// LogLevel is "info" or "debug".
	LogLevel string `toml:"log_level"`
}

// AnalysisConfig mirrors grid.Params.
type AnalysisConfig struct {
	PreZoom       int     `toml:"pre_zoom"`
	NoiseSigma    float64 `toml:"noise_sigma"`
	EdgeThreshold float64 `toml:"edge_threshold"`
	MinPeakRatio  float64 `toml:"min_peak_ratio"`
	MinBlockSize  float64 `toml:"min_block_size"`
}

// OutputConfig controls where batch conversions write.
type OutputConfig struct {
	// Pattern is the output file name; %s is replaced by the input stem.
	Pattern string `toml:"pattern"`

	// Dir is the output directory. Empty means next to each input.
	Dir string `toml:"dir"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	p := grid.DefaultParams()
	return &Config{
		Analysis: AnalysisConfig{
			PreZoom:       p.PreZoom,
			NoiseSigma:    p.NoiseSigma,
			EdgeThreshold: p.EdgeThreshold,
			MinPeakRatio:  p.MinPeakRatio,
			MinBlockSize:  p.MinBlockSize,
		},
		Output: OutputConfig{
			Pattern: DefaultOutputPattern,
		},
		Workers:  1,
		LogLevel: "info",
	}
}

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/repixelator/config.toml
//  2. ~/.config/repixelator/config.toml
//
// If no file exists, returns DefaultConfig() with environment overrides.
func Load() (*Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader reads configuration from an io.Reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Params converts the analysis section to grid parameters.
func (c *Config) Params() grid.Params {
	return grid.Params{
		PreZoom:       c.Analysis.PreZoom,
		NoiseSigma:    c.Analysis.NoiseSigma,
		EdgeThreshold: c.Analysis.EdgeThreshold,
		MinPeakRatio:  c.Analysis.MinPeakRatio,
		MinBlockSize:  c.Analysis.MinBlockSize,
	}
}

// Validate checks every value before any file is processed.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalid, c.Workers)
	}
	if strings.Count(c.Output.Pattern, "%s") != 1 {
		return fmt.Errorf("%w: output pattern %q must contain exactly one %%s", ErrInvalid, c.Output.Pattern)
	}
	if strings.Count(c.Output.Pattern, "%") != 1 {
		return fmt.Errorf("%w: output pattern %q has a stray %%", ErrInvalid, c.Output.Pattern)
	}
	switch c.LogLevel {
	case "info", "debug":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// applyEnvOverrides checks environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPIXELATOR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("REPIXELATOR_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
}

func configSearchPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "repixelator", "config.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "repixelator", "config.toml"))
	}
	return paths
}
