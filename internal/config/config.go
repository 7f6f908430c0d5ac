package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// OutputFormat selects how graphs are printed.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputDot  OutputFormat = "dot"
)

// Config holds all configuration for gcfg.
type Config struct {
	// FailurePolicy is "skip" or "abort": what a build does when one
	// function cannot be lowered.
	FailurePolicy string `yaml:"failure_policy" env:"GCFG_FAILURE_POLICY"`

	// Concurrency bounds the functions built at once. 0 uses one worker per CPU.
	Concurrency int `yaml:"concurrency" env:"GCFG_CONCURRENCY"`

	OutputFormat OutputFormat `yaml:"output_format" env:"GCFG_OUTPUT_FORMAT"`

	// Simplify collapses no-op nodes in built graphs.
	Simplify bool `yaml:"simplify" env:"GCFG_SIMPLIFY"`

	// Graph cache
	CacheEnabled    bool   `yaml:"cache_enabled" env:"GCFG_CACHE_ENABLED"`
	CacheDir        string `yaml:"cache_dir" env:"GCFG_CACHE_DIR"`
	CacheMaxEntries int    `yaml:"cache_max_entries" env:"GCFG_CACHE_MAX_ENTRIES"`

	// Exclude lists doublestar globs of files skipped by "gcfg build".
	Exclude []string `yaml:"exclude" env:"GCFG_EXCLUDE"`

	// Logging
	Verbose bool `yaml:"verbose" env:"GCFG_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		FailurePolicy:   "skip",
		Concurrency:     0,
		OutputFormat:    OutputText,
		Simplify:        true,
		CacheEnabled:    true,
		CacheDir:        filepath.Join(".gcfg", "cache"),
		CacheMaxEntries: 10000,
		Exclude:         nil,
		Verbose:         false,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.gcfg/config.yaml).
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".gcfg", "config.yaml")
	}
	return filepath.Join(home, ".gcfg", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.gcfg/config.yaml).
func ProjectConfigFilePath() string {
	return filepath.Join(".gcfg", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Project-level config (./.gcfg/config.yaml)
// 2. Environment variables
// 3. Global config (~/.gcfg/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	return load(GlobalConfigFilePath(), ProjectConfigFilePath())
}

func load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if err := mergeFile(cfg, globalPath); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := mergeFile(cfg, projectPath); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile overlays the keys present in the YAML file at path. A missing
// file is skipped.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromFile reads configuration from a specific YAML file path.
// Environment variables still override the file.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies GCFG_* environment variables to the config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GCFG_FAILURE_POLICY"); v != "" {
		cfg.FailurePolicy = v
	}
	if v := os.Getenv("GCFG_CONCURRENCY"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GCFG_CONCURRENCY: %w", err)
		}
		cfg.Concurrency = i
	}
	if v := os.Getenv("GCFG_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	if v := os.Getenv("GCFG_SIMPLIFY"); v != "" {
		cfg.Simplify = parseBool(v)
	}
	if v := os.Getenv("GCFG_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = parseBool(v)
	}
	if v := os.Getenv("GCFG_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("GCFG_CACHE_MAX_ENTRIES"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GCFG_CACHE_MAX_ENTRIES: %w", err)
		}
		cfg.CacheMaxEntries = i
	}
	if v := os.Getenv("GCFG_EXCLUDE"); v != "" {
		cfg.Exclude = splitList(v)
	}
	if v := os.Getenv("GCFG_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// splitList splits a comma separated list, dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks that the configuration has valid fields.
func (c *Config) Validate() error {
	switch strings.ToLower(c.FailurePolicy) {
	case "skip", "abort":
	default:
		return fmt.Errorf("invalid failure_policy: %s (must be 'skip' or 'abort')", c.FailurePolicy)
	}

	switch c.OutputFormat {
	case OutputText, OutputJSON, OutputDot:
	default:
		return fmt.Errorf("invalid output_format: %s (must be 'text', 'json' or 'dot')", c.OutputFormat)
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be non-negative")
	}

	if c.CacheEnabled {
		if c.CacheDir == "" {
			return fmt.Errorf("cache_dir is required when cache_enabled is true")
		}
		if c.CacheMaxEntries <= 0 {
			return fmt.Errorf("cache_max_entries must be positive")
		}
	}

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %q", pattern)
		}
	}

	return nil
}
