// Package config provides configuration management for tabula engines
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pivot cardinality modes
const (
	PivotModeBounded = "bounded"
	PivotModeFull    = "full"
)

// Config represents the configuration of a tabula engine
type Config struct {
	// Source Configuration
	MaxRows      int `json:"max_rows" yaml:"max_rows"`           // Maximum data rows accepted at load
	PreviewLimit int `json:"preview_limit" yaml:"preview_limit"` // Default number of preview rows

	// Pivot Configuration
	PivotMode               string `json:"pivot_mode" yaml:"pivot_mode"`                               // Default cardinality mode (bounded or full)
	BoundedPivotCardinality int    `json:"bounded_pivot_cardinality" yaml:"bounded_pivot_cardinality"` // Pivot value cap in bounded mode
	FullPivotCardinality    int    `json:"full_pivot_cardinality" yaml:"full_pivot_cardinality"`       // Pivot value cap in full mode
	PivotRowLimit           int    `json:"pivot_row_limit" yaml:"pivot_row_limit"`                     // Output row cap without a column pivot

	// Chart Configuration
	FrequencyLimit       int `json:"frequency_limit" yaml:"frequency_limit"`               // Categories kept by frequency charts
	PieLimit             int `json:"pie_limit" yaml:"pie_limit"`                           // Slices kept by pie charts
	CategoryLimit        int `json:"category_limit" yaml:"category_limit"`                 // Categories kept by bar/line/area charts
	ScatterLimit         int `json:"scatter_limit" yaml:"scatter_limit"`                   // Points kept by scatter charts
	BoxplotCategoryLimit int `json:"boxplot_category_limit" yaml:"boxplot_category_limit"` // Categories kept by box plots
	BoxplotOutlierLimit  int `json:"boxplot_outlier_limit" yaml:"boxplot_outlier_limit"`   // Outliers kept per box plot category

	// Coercion Configuration
	NullWarningRatio float64 `json:"null_warning_ratio" yaml:"null_warning_ratio"` // Null ratio above which a retype warns

	// Parallel Processing Configuration
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"` // Minimum cells (rows x columns) to infer columns in parallel
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size"`     // Number of worker goroutines (0 = auto-detect)

	// Debugging Configuration
	VerboseLogging    bool `json:"verbose_logging" yaml:"verbose_logging"`       // Enable verbose logging
	MetricsCollection bool `json:"metrics_collection" yaml:"metrics_collection"` // Enable metrics collection
}

// Default configuration values
const (
	DefaultMaxRows                 = 1_000_000
	DefaultPreviewLimit            = 2000
	DefaultBoundedPivotCardinality = 60
	DefaultFullPivotCardinality    = 200
	DefaultPivotRowLimit           = 200
	DefaultFrequencyLimit          = 30
	DefaultPieLimit                = 20
	DefaultCategoryLimit           = 50
	DefaultScatterLimit            = 5000
	DefaultBoxplotCategoryLimit    = 30
	DefaultBoxplotOutlierLimit     = 50
	DefaultNullWarningRatio        = 0.5
	DefaultParallelThreshold       = 100_000
)

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		MaxRows:      DefaultMaxRows,
		PreviewLimit: DefaultPreviewLimit,

		PivotMode:               PivotModeBounded,
		BoundedPivotCardinality: DefaultBoundedPivotCardinality,
		FullPivotCardinality:    DefaultFullPivotCardinality,
		PivotRowLimit:           DefaultPivotRowLimit,

		FrequencyLimit:       DefaultFrequencyLimit,
		PieLimit:             DefaultPieLimit,
		CategoryLimit:        DefaultCategoryLimit,
		ScatterLimit:         DefaultScatterLimit,
		BoxplotCategoryLimit: DefaultBoxplotCategoryLimit,
		BoxplotOutlierLimit:  DefaultBoxplotOutlierLimit,

		NullWarningRatio: DefaultNullWarningRatio,

		ParallelThreshold: DefaultParallelThreshold,
		WorkerPoolSize:    0, // Auto-detect

		VerboseLogging:    false,
		MetricsCollection: false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"MaxRows", c.MaxRows},
		{"PreviewLimit", c.PreviewLimit},
		{"BoundedPivotCardinality", c.BoundedPivotCardinality},
		{"FullPivotCardinality", c.FullPivotCardinality},
		{"PivotRowLimit", c.PivotRowLimit},
		{"FrequencyLimit", c.FrequencyLimit},
		{"PieLimit", c.PieLimit},
		{"CategoryLimit", c.CategoryLimit},
		{"ScatterLimit", c.ScatterLimit},
		{"BoxplotCategoryLimit", c.BoxplotCategoryLimit},
		{"BoxplotOutlierLimit", c.BoxplotOutlierLimit},
		{"ParallelThreshold", c.ParallelThreshold},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}

	if c.PivotMode != PivotModeBounded && c.PivotMode != PivotModeFull {
		return fmt.Errorf("PivotMode must be %q or %q, got %q", PivotModeBounded, PivotModeFull, c.PivotMode)
	}

	if c.BoundedPivotCardinality > c.FullPivotCardinality {
		return fmt.Errorf("BoundedPivotCardinality (%d) must not exceed FullPivotCardinality (%d)",
			c.BoundedPivotCardinality, c.FullPivotCardinality)
	}

	if c.NullWarningRatio < 0.0 || c.NullWarningRatio > 1.0 {
		return fmt.Errorf("NullWarningRatio must be between 0 and 1, got %f", c.NullWarningRatio)
	}

	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	fill := func(v *int, d int) {
		if *v == 0 {
			*v = d
		}
	}
	fill(&c.MaxRows, defaults.MaxRows)
	fill(&c.PreviewLimit, defaults.PreviewLimit)
	fill(&c.BoundedPivotCardinality, defaults.BoundedPivotCardinality)
	fill(&c.FullPivotCardinality, defaults.FullPivotCardinality)
	fill(&c.PivotRowLimit, defaults.PivotRowLimit)
	fill(&c.FrequencyLimit, defaults.FrequencyLimit)
	fill(&c.PieLimit, defaults.PieLimit)
	fill(&c.CategoryLimit, defaults.CategoryLimit)
	fill(&c.ScatterLimit, defaults.ScatterLimit)
	fill(&c.BoxplotCategoryLimit, defaults.BoxplotCategoryLimit)
	fill(&c.BoxplotOutlierLimit, defaults.BoxplotOutlierLimit)
	fill(&c.ParallelThreshold, defaults.ParallelThreshold)

	if c.PivotMode == "" {
		c.PivotMode = defaults.PivotMode
	}
	if c.NullWarningRatio == 0.0 {
		c.NullWarningRatio = defaults.NullWarningRatio
	}

	// Boolean fields keep their explicit value; WorkerPoolSize 0 already means auto.
	return c
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		config, err := LoadFromJSON(data)
		if err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", filename, err)
		}
		return config, nil
	case ".yaml", ".yml":
		var config Config
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
		}
		return config.WithDefaults(), nil
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}
}

// envPrefix prefixes every environment variable read by LoadFromEnv
const envPrefix = "TABULA_"

// LoadFromEnv loads configuration from environment variables on top of the defaults
func LoadFromEnv() Config {
	config := NewConfig()

	ints := map[string]*int{
		"MAX_ROWS":                  &config.MaxRows,
		"PREVIEW_LIMIT":             &config.PreviewLimit,
		"BOUNDED_PIVOT_CARDINALITY": &config.BoundedPivotCardinality,
		"FULL_PIVOT_CARDINALITY":    &config.FullPivotCardinality,
		"PIVOT_ROW_LIMIT":           &config.PivotRowLimit,
		"FREQUENCY_LIMIT":           &config.FrequencyLimit,
		"PIE_LIMIT":                 &config.PieLimit,
		"CATEGORY_LIMIT":            &config.CategoryLimit,
		"SCATTER_LIMIT":             &config.ScatterLimit,
		"BOXPLOT_CATEGORY_LIMIT":    &config.BoxplotCategoryLimit,
		"BOXPLOT_OUTLIER_LIMIT":     &config.BoxplotOutlierLimit,
		"PARALLEL_THRESHOLD":        &config.ParallelThreshold,
		"WORKER_POOL_SIZE":          &config.WorkerPoolSize,
	}
	for key, target := range ints {
		if val := os.Getenv(envPrefix + key); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil {
				*target = parsed
			}
		}
	}

	if val := os.Getenv(envPrefix + "PIVOT_MODE"); val != "" {
		config.PivotMode = strings.ToLower(val)
	}

	if val := os.Getenv(envPrefix + "NULL_WARNING_RATIO"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.NullWarningRatio = parsed
		}
	}

	if val := os.Getenv(envPrefix + "VERBOSE_LOGGING"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.VerboseLogging = parsed
		}
	}

	if val := os.Getenv(envPrefix + "METRICS_COLLECTION"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.MetricsCollection = parsed
		}
	}

	return config
}

// SystemInfo contains system information for configuration validation
type SystemInfo struct {
	CPUCount     int
	Architecture string
	OSType       string
}

// GetSystemInfo returns system information for configuration validation
func GetSystemInfo() SystemInfo {
	return SystemInfo{
		CPUCount:     runtime.NumCPU(),
		Architecture: runtime.GOARCH,
		OSType:       runtime.GOOS,
	}
}

// ConfigValidator validates and provides recommendations for configuration
type ConfigValidator struct {
	systemInfo SystemInfo
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		systemInfo: GetSystemInfo(),
	}
}

// Validate validates a configuration, resolves auto-detected values and
// returns recommendations
func (cv *ConfigValidator) Validate(config Config) (Config, []string, error) {
	var warnings []string
	validated := config

	if err := config.Validate(); err != nil {
		return Config{}, warnings, err
	}

	if config.WorkerPoolSize > cv.systemInfo.CPUCount*2 {
		warnings = append(warnings,
			fmt.Sprintf("Worker pool size (%d) exceeds 2x CPU count (%d), may cause contention",
				config.WorkerPoolSize, cv.systemInfo.CPUCount))
	}

	if config.WorkerPoolSize == 0 {
		validated.WorkerPoolSize = cv.systemInfo.CPUCount
	}

	return validated, warnings, nil
}
