// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"agent-cost/core/compare"
	"agent-cost/core/output"
	"agent-cost/internal/errors"
	"agent-cost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// Catalog contains pricing catalog configuration
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Output contains output configuration
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`

	// Recommendations holds the recommendation thresholds
	Recommendations compare.Policy `json:"recommendations" yaml:"recommendations"`
}

// CatalogConfig contains pricing catalog settings
type CatalogConfig struct {
	// Path is a JSON or YAML catalog file; empty uses the embedded catalog
	Path string `json:"path" yaml:"path"`

	// CacheTTLSeconds is how long a loaded catalog is served before reload
	CacheTTLSeconds int `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`

	// Watch reloads the catalog when the file changes
	Watch bool `json:"watch" yaml:"watch"`

	// WatchDebounceMillis coalesces bursts of file events
	WatchDebounceMillis int `json:"watch_debounce_millis" yaml:"watch_debounce_millis"`
}

// CacheTTL returns the TTL as a duration
func (c CatalogConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// WatchDebounce returns the debounce as a duration
func (c CatalogConfig) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMillis) * time.Millisecond
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address                string `json:"address" yaml:"address"`
	ReadTimeoutSeconds     int    `json:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `json:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds     int    `json:"idle_timeout_seconds" yaml:"idle_timeout_seconds"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`

	// MaxBodyBytes limits request bodies
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`
}

// ReadTimeout returns the read timeout as a duration
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the write timeout as a duration
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns the idle timeout as a duration
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown timeout as a duration
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format" yaml:"default_format"`

	// ShowDetails shows the per-component breakdown
	ShowDetails bool `json:"show_details" yaml:"show_details"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Catalog: CatalogConfig{
			CacheTTLSeconds:     300,
			WatchDebounceMillis: 200,
		},
		Server: ServerConfig{
			Address:                ":8080",
			ReadTimeoutSeconds:     10,
			WriteTimeoutSeconds:    30,
			IdleTimeoutSeconds:     60,
			ShutdownTimeoutSeconds: 15,
			MaxBodyBytes:           1 << 20,
		},
		Output: OutputConfig{
			DefaultFormat: string(output.FormatCLI),
			ShowDetails:   true,
		},
		Logging:         logging.DefaultConfig(),
		Recommendations: compare.DefaultPolicy(),
	}
}

// DefaultPath is $HOME/.agent-cost.json
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agent-cost.json"
	}
	return filepath.Join(home, ".agent-cost.json")
}

// Load reads a JSON or YAML file over the defaults, applies AGENTCOST_*
// environment overrides and validates the result. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, path, cfg); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrapf(errors.TypeParsing, err, "reading config %s", path)
	}

	applyEnvOverrides(cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.Parsing("malformed config "+path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return errors.Parsing("malformed config "+path, err)
		}
	}
	return nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	var problems []string
	if c.Catalog.CacheTTLSeconds < 0 {
		problems = append(problems, "catalog.cache_ttl_seconds must not be negative")
	}
	if c.Catalog.WatchDebounceMillis < 0 {
		problems = append(problems, "catalog.watch_debounce_millis must not be negative")
	}
	if c.Catalog.Watch && c.Catalog.Path == "" {
		problems = append(problems, "catalog.watch needs catalog.path")
	}
	if c.Server.Address == "" {
		problems = append(problems, "server.address is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		problems = append(problems, "server.max_body_bytes must be positive")
	}
	if _, err := output.Get(output.Format(c.Output.DefaultFormat)); err != nil {
		problems = append(problems, "output.default_format: "+err.Error())
	}
	if err := c.Recommendations.Validate(); err != nil {
		problems = append(problems, "recommendations: "+err.Error())
	}
	return errors.Problems(errors.TypeConfig, "invalid configuration", problems)
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
