// Package config loads and validates Semdex configuration.
//
// Configuration is resolved in three layers, later layers winning:
//  1. Built-in defaults (NewConfig)
//  2. .semdex.yaml in the indexed root
//  3. SEMDEX_* environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the per-root configuration file name.
const ConfigFileName = ".semdex.yaml"

// DataDirName is the per-root data directory holding the index.
const DataDirName = ".semdex"

// DefaultDataDir returns the home-level index directory
// (~/.semdex/index). The index lives outside the indexed tree so
// switching roots keeps a single well-known location. Falls back to the
// temp directory when the home directory is unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), DataDirName, "index")
	}
	return filepath.Join(home, DataDirName, "index")
}

// Config represents the complete Semdex configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Paths       PathsConfig       `yaml:"paths" json:"paths"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Limits      LimitsConfig      `yaml:"limits" json:"limits"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
}

// PathsConfig configures which paths to exclude from indexing.
type PathsConfig struct {
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// SearchConfig configures ranking parameters.
//
// Raw cosine distances cluster well below the theoretical max of 2, so a
// naive linear rescale crushes the useful region near 1.0. The inverted
// sigmoid score(d) = 1/(1+exp(scale*(d-midpoint))) spreads that region out;
// midpoint and scale are tunable here.
type SearchConfig struct {
	// MetadataWeight is the weight for the metadata collection score (0.0-1.0).
	// Must sum to 1.0 with ContentWeight.
	MetadataWeight float64 `yaml:"metadata_weight" json:"metadata_weight"`

	// ContentWeight is the weight for the content collection score (0.0-1.0).
	// Must sum to 1.0 with MetadataWeight.
	ContentWeight float64 `yaml:"content_weight" json:"content_weight"`

	// SigmoidMidpoint is the distance mapped to score 0.5.
	SigmoidMidpoint float64 `yaml:"sigmoid_midpoint" json:"sigmoid_midpoint"`

	// SigmoidScale is the steepness of the score curve.
	SigmoidScale float64 `yaml:"sigmoid_scale" json:"sigmoid_scale"`

	// Candidates is the per-collection nearest-neighbor fetch size (k).
	Candidates int `yaml:"candidates" json:"candidates"`

	// MaxResults is the default result list length.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// Timeout bounds a single query (duration string, e.g. "10s").
	Timeout string `yaml:"timeout" json:"timeout"`
}

// LimitsConfig holds per-type file size limits in bytes.
// Files above their type's limit are skipped, never errored.
type LimitsConfig struct {
	PDFMaxBytes     int64 `yaml:"pdf_max_bytes" json:"pdf_max_bytes"`
	OfficeMaxBytes  int64 `yaml:"office_max_bytes" json:"office_max_bytes"`
	TextMaxBytes    int64 `yaml:"text_max_bytes" json:"text_max_bytes"`
	DefaultMaxBytes int64 `yaml:"default_max_bytes" json:"default_max_bytes"`
}

// PerformanceConfig configures the indexing pipeline.
type PerformanceConfig struct {
	// IndexWorkers is the worker pool size.
	IndexWorkers int `yaml:"index_workers" json:"index_workers"`

	// WatchDebounce is the watcher debounce window (duration string).
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`

	// QueueCapacity is the task queue buffer size.
	QueueCapacity int `yaml:"queue_capacity" json:"queue_capacity"`

	// HashCacheSize is the LRU capacity for recently committed content hashes.
	HashCacheSize int `yaml:"hash_cache_size" json:"hash_cache_size"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// defaultExcludePatterns are directory names never worth indexing.
var defaultExcludePatterns = []string{
	".git",
	".semdex",
	"node_modules",
	".venv",
	"__pycache__",
	".DS_Store",
}

// NewConfig returns a config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Exclude: append([]string(nil), defaultExcludePatterns...),
		},
		Search: SearchConfig{
			// Content signal carries more ranking information than file
			// metadata for natural-language queries.
			MetadataWeight:  0.4,
			ContentWeight:   0.6,
			SigmoidMidpoint: 0.85,
			SigmoidScale:    6.0,
			Candidates:      20,
			MaxResults:      10,
			Timeout:         "10s",
		},
		Limits: LimitsConfig{
			PDFMaxBytes:     50_000_000,
			OfficeMaxBytes:  20_000_000,
			TextMaxBytes:    5_000_000,
			DefaultMaxBytes: 10_000_000,
		},
		Performance: PerformanceConfig{
			IndexWorkers:  4,
			WatchDebounce: "200ms",
			QueueCapacity: 65536,
			HashCacheSize: 4096,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration for the given root directory.
// Missing config file is not an error; defaults apply.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadYAML merges values from a YAML file over the current config.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies SEMDEX_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEMDEX_METADATA_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.MetadataWeight = w
		}
	}
	if v := os.Getenv("SEMDEX_CONTENT_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.ContentWeight = w
		}
	}
	if v := os.Getenv("SEMDEX_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Performance.IndexWorkers = n
		}
	}
	if v := os.Getenv("SEMDEX_WATCH_DEBOUNCE"); v != "" {
		if _, err := time.ParseDuration(v); err == nil {
			c.Performance.WatchDebounce = v
		}
	}
	if v := os.Getenv("SEMDEX_SEARCH_TIMEOUT"); v != "" {
		if _, err := time.ParseDuration(v); err == nil {
			c.Search.Timeout = v
		}
	}
	if v := os.Getenv("SEMDEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	sum := c.Search.MetadataWeight + c.Search.ContentWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("search weights must sum to 1.0, got %.3f", sum)
	}
	if c.Search.SigmoidScale <= 0 {
		return fmt.Errorf("sigmoid_scale must be positive, got %f", c.Search.SigmoidScale)
	}
	if c.Search.SigmoidMidpoint <= 0 || c.Search.SigmoidMidpoint >= 2 {
		return fmt.Errorf("sigmoid_midpoint must be in (0,2), got %f", c.Search.SigmoidMidpoint)
	}
	if c.Search.Candidates <= 0 {
		return fmt.Errorf("candidates must be positive, got %d", c.Search.Candidates)
	}
	if c.Performance.IndexWorkers <= 0 {
		return fmt.Errorf("index_workers must be positive, got %d", c.Performance.IndexWorkers)
	}
	if _, err := time.ParseDuration(c.Performance.WatchDebounce); err != nil {
		return fmt.Errorf("invalid watch_debounce: %w", err)
	}
	if _, err := time.ParseDuration(c.Search.Timeout); err != nil {
		return fmt.Errorf("invalid search timeout: %w", err)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

// DebounceWindow returns the parsed watcher debounce window.
func (c *Config) DebounceWindow() time.Duration {
	d, err := time.ParseDuration(c.Performance.WatchDebounce)
	if err != nil {
		return 200 * time.Millisecond
	}
	return d
}

// SearchTimeout returns the parsed per-query timeout.
func (c *Config) SearchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Search.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// WriteYAML writes the config to the given path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
