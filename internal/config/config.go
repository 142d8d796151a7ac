// Package config handles configuration loading for Apertura.
// It supports YAML config files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tcabrera23/Apertura-Market-sub000/internal/charts"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/datasource"
	"github.com/tcabrera23/Apertura-Market-sub000/internal/pricehistory"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "APERTURA"

// Config represents the complete application configuration.
type Config struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Charts  ChartsConfig  `mapstructure:"charts"  yaml:"charts"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// BackendConfig points at the service that serves asset snapshots and histories.
type BackendConfig struct {
	BaseURL         string `mapstructure:"base_url"           yaml:"base_url"`
	APIKey          string `mapstructure:"api_key"            yaml:"api_key"            json:"-"`
	TimeoutSec      int    `mapstructure:"timeout_sec"        yaml:"timeout_sec"`
	CacheTTLSec     int    `mapstructure:"cache_ttl_sec"      yaml:"cache_ttl_sec"`
	RateLimitPerSec int    `mapstructure:"rate_limit_per_sec" yaml:"rate_limit_per_sec"` // 0 disables
}

// ChartsConfig holds renderer sizes and interaction thresholds.
type ChartsConfig struct {
	Width           int     `mapstructure:"width"            yaml:"width"`
	TreemapHeight   int     `mapstructure:"treemap_height"   yaml:"treemap_height"`
	ScatterHeight   int     `mapstructure:"scatter_height"   yaml:"scatter_height"`
	HistoryHeight   int     `mapstructure:"history_height"   yaml:"history_height"`
	Dark            bool    `mapstructure:"dark"             yaml:"dark"`
	HoverThreshold  float64 `mapstructure:"hover_threshold"  yaml:"hover_threshold"`  // pixels
	ResizeThreshold int     `mapstructure:"resize_threshold" yaml:"resize_threshold"` // pixels
	PointRadius     float64 `mapstructure:"point_radius"     yaml:"point_radius"`
}

// HistoryConfig holds price history chart settings.
type HistoryConfig struct {
	PollAttempts   int    `mapstructure:"poll_attempts"    yaml:"poll_attempts"`
	PollIntervalMS int    `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	DefaultPeriod  string `mapstructure:"default_period"   yaml:"default_period"`
	LibraryVersion int    `mapstructure:"library_version"  yaml:"library_version"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.apertura/config.yaml (home directory)
//  3. /etc/apertura/config.yaml (system)
//
// A .env file in the working directory is loaded first; it never overrides
// variables already set in the process environment.
// Environment variables override config file values.
// Format: APERTURA_<SECTION>_<KEY>, e.g., APERTURA_BACKEND_API_KEY
func Load() (*Config, error) {
	loadDotEnv(".env")

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".apertura"))
	v.AddConfigPath("/etc/apertura")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv(".env")

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

// Default returns the built-in defaults, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs from path if the file exists.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Backend defaults
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.timeout_sec", 30)
	v.SetDefault("backend.cache_ttl_sec", 120) // backend refresh window
	v.SetDefault("backend.rate_limit_per_sec", 5)

	// Chart defaults
	v.SetDefault("charts.width", 800)
	v.SetDefault("charts.treemap_height", 400)
	v.SetDefault("charts.scatter_height", 500)
	v.SetDefault("charts.history_height", 400)
	v.SetDefault("charts.dark", false)
	v.SetDefault("charts.hover_threshold", 15.0)
	v.SetDefault("charts.resize_threshold", 10)
	v.SetDefault("charts.point_radius", 6.0)

	// History defaults
	v.SetDefault("history.poll_attempts", 5)
	v.SetDefault("history.poll_interval_ms", 500)
	v.SetDefault("history.default_period", pricehistory.DefaultPeriod)
	v.SetDefault("history.library_version", 5)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(EnvPrefix + "_BACKEND_API_KEY"); key != "" {
		cfg.Backend.APIKey = key
	}
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.Charts.Width <= 0:
		return fmt.Errorf("config: charts.width must be positive, got %d", c.Charts.Width)
	case c.Charts.TreemapHeight <= 0 || c.Charts.ScatterHeight <= 0 || c.Charts.HistoryHeight <= 0:
		return fmt.Errorf("config: chart heights must be positive")
	case c.Charts.ResizeThreshold < 0:
		return fmt.Errorf("config: charts.resize_threshold must not be negative")
	case c.History.PollAttempts < 1:
		return fmt.Errorf("config: history.poll_attempts must be at least 1")
	case c.API.Port < 0 || c.API.Port > 65535:
		return fmt.Errorf("config: api.port %d out of range", c.API.Port)
	}
	return nil
}

// Addr returns the host:port the API server listens on.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// Endpoint returns the datasource endpoint for the backend.
func (b BackendConfig) Endpoint() datasource.Endpoint {
	ep := datasource.Endpoint{BaseURL: b.BaseURL, APIKey: b.APIKey}
	if b.TimeoutSec > 0 {
		ep.Client = datasource.NewHTTPClient(time.Duration(b.TimeoutSec) * time.Second)
	}
	return ep
}

// CacheTTL returns the asset cache window.
func (b BackendConfig) CacheTTL() time.Duration {
	return time.Duration(b.CacheTTLSec) * time.Second
}

// Renderer returns the chart renderer configuration.
func (c ChartsConfig) Renderer() charts.Config {
	rc := charts.DefaultConfig()
	rc.Width = c.Width
	rc.TreemapHeight = c.TreemapHeight
	rc.ScatterHeight = c.ScatterHeight
	if c.HoverThreshold > 0 {
		rc.HoverThreshold = c.HoverThreshold
	}
	if c.PointRadius > 0 {
		rc.PointRadius = c.PointRadius
	}
	return rc
}

// Options returns the price history adapter options.
func (h HistoryConfig) Options(height int) pricehistory.Options {
	opts := pricehistory.DefaultOptions()
	opts.PollAttempts = h.PollAttempts
	if h.PollIntervalMS > 0 {
		opts.PollInterval = time.Duration(h.PollIntervalMS) * time.Millisecond
	}
	if height > 0 {
		opts.Height = height
	}
	return opts
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
