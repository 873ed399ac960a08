// Package config provides configuration structures for the planscribe CLI and server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the planscribe configuration.
type Config struct {
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	// Workers bounds concurrent node rendering within one document.
	Workers int `yaml:"workers" json:"workers" mapstructure:"workers"`

	// Narrative cache configuration
	Cache CacheConfig `yaml:"cache" json:"cache" mapstructure:"cache"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`

	// HTTP server configuration
	Server ServerConfig `yaml:"server" json:"server" mapstructure:"server"`

	// Batch translation configuration
	Batch BatchConfig `yaml:"batch" json:"batch" mapstructure:"batch"`

	// DuckDB explain source configuration
	DuckDB DuckDBConfig `yaml:"duckdb" json:"duckdb" mapstructure:"duckdb"`
}

// CacheConfig represents narrative cache configuration.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	MaxSize int64         `yaml:"max_size" json:"max_size" mapstructure:"max_size"`
	TTL     time.Duration `yaml:"ttl" json:"ttl" mapstructure:"ttl"`
}

// MetricsConfig represents metrics configuration. An empty Address serves
// metrics on the main HTTP server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Address string `yaml:"address" json:"address" mapstructure:"address"`
	Path    string `yaml:"path" json:"path" mapstructure:"path"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Address         string        `yaml:"address" json:"address" mapstructure:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" json:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// BatchConfig represents batch translation configuration.
type BatchConfig struct {
	InputDir    string `yaml:"input_dir" json:"input_dir" mapstructure:"input_dir"`
	OutputDir   string `yaml:"output_dir" json:"output_dir" mapstructure:"output_dir"`
	Pattern     string `yaml:"pattern" json:"pattern" mapstructure:"pattern"`
	Concurrency int    `yaml:"concurrency" json:"concurrency" mapstructure:"concurrency"`
}

// DuckDBConfig represents the DuckDB explain source. An empty DSN disables it.
type DuckDBConfig struct {
	DSN string `yaml:"dsn" json:"dsn" mapstructure:"dsn"`
	// Token authenticates md: DSNs against MotherDuck.
	Token string `yaml:"token" json:"-" mapstructure:"token"`
	// Setup statements run once after opening, e.g. CREATE TABLE.
	Setup []string `yaml:"setup" json:"setup" mapstructure:"setup"`
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate validates the configuration and fills zero values with defaults.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if !logLevels[c.LogLevel] {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	if c.Workers <= 0 {
		c.Workers = 1
	}

	// Validate cache
	if c.Cache.MaxSize < 0 {
		return fmt.Errorf("cache max size must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}

	// Validate metrics
	if c.Metrics.Enabled {
		if c.Metrics.Path == "" {
			c.Metrics.Path = "/metrics"
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("metrics path must start with /")
		}
	}

	// Validate server
	if c.Server.Address == "" {
		return fmt.Errorf("server address is required")
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 4 * 1024 * 1024 // 4MB
	}

	// Validate batch
	if c.Batch.Pattern == "" {
		c.Batch.Pattern = "*.json"
	}
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = 4
	}

	return nil
}

// LoadFromFile loads configuration from a YAML, JSON or TOML file. Keys the
// file leaves out keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Workers:  1,
		Cache: CacheConfig{
			Enabled: true,
			MaxSize: 16 * 1024 * 1024,
			TTL:     30 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Address: ":9090",
			Path:    "/metrics",
		},
		Server: ServerConfig{
			Address:         "0.0.0.0:8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    4 * 1024 * 1024,
		},
		Batch: BatchConfig{
			InputDir:    ".",
			Pattern:     "*.json",
			Concurrency: 4,
		},
	}
}
