// Package config handles configuration loading for nsequant.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/seenimoa/nsequant/pkg/models"
)

// EnvPrefix is prepended to every environment override, e.g. NSEQUANT_DATA_ROOT.
const EnvPrefix = "NSEQUANT"

// Config represents the complete application configuration.
type Config struct {
	Data     DataConfig     `mapstructure:"data"     yaml:"data"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// DataConfig locates the raw bhavcopy files, reference lists and caches.
type DataConfig struct {
	Root           string   `mapstructure:"root"            yaml:"root"`
	RawDir         string   `mapstructure:"raw_dir"         yaml:"raw_dir"`     // relative to root
	IndicesDir     string   `mapstructure:"indices_dir"     yaml:"indices_dir"` // relative to root
	SectorFile     string   `mapstructure:"sector_file"     yaml:"sector_file"` // relative to root
	CacheDir       string   `mapstructure:"cache_dir"       yaml:"cache_dir"`   // default <root>/cache
	LoadWorkers    int      `mapstructure:"load_workers"    yaml:"load_workers"`
	SeriesPriority []string `mapstructure:"series_priority" yaml:"series_priority"`
}

// RawPath returns the absolute-or-relative path of the raw data directory.
func (d DataConfig) RawPath() string { return joinRoot(d.Root, d.RawDir) }

// IndicesPath returns the path of the index constituent directory.
func (d DataConfig) IndicesPath() string { return joinRoot(d.Root, d.IndicesDir) }

// SectorPath returns the path of the sector mapping CSV.
func (d DataConfig) SectorPath() string { return joinRoot(d.Root, d.SectorFile) }

// AnalysisConfig holds metric and screening thresholds.
type AnalysisConfig struct {
	DefaultTopN           int     `mapstructure:"default_top_n"           yaml:"default_top_n"`
	MaxTopN               int     `mapstructure:"max_top_n"               yaml:"max_top_n"`
	DefaultDetail         string  `mapstructure:"default_detail"          yaml:"default_detail"` // "compact", "standard", "full"
	MinValidClose         float64 `mapstructure:"min_valid_close"         yaml:"min_valid_close"`
	SurgeRecentDays       int     `mapstructure:"surge_recent_days"       yaml:"surge_recent_days"`
	SurgeThreshold        float64 `mapstructure:"surge_threshold"         yaml:"surge_threshold"`
	BreakoutThreshold     float64 `mapstructure:"breakout_threshold"      yaml:"breakout_threshold"`
	BreakoutMaxVolatility float64 `mapstructure:"breakout_max_volatility" yaml:"breakout_max_volatility"`
	MinDeliveryPct        float64 `mapstructure:"min_delivery_pct"        yaml:"min_delivery_pct"`
	Week52MinDays         int     `mapstructure:"week52_min_days"         yaml:"week52_min_days"`
}

// APIConfig holds the tool gateway settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	BatchLimit  int      `mapstructure:"batch_limit"  yaml:"batch_limit"` // concurrent calls per batch
}

// Addr returns host:port for net/http.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"        yaml:"level"`  // "debug", "info", "warn", "error"
	Format     string `mapstructure:"format"       yaml:"format"` // "text" or "json"
	Output     string `mapstructure:"output"       yaml:"output"` // "stderr", "stdout", "file", "both"
	File       string `mapstructure:"file"         yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"  yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"  yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress"     yaml:"compress"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.nsequant/config.yaml (home directory)
//  3. /etc/nsequant/config.yaml (system)
//
// Environment variables override config file values.
// Format: NSEQUANT_<SECTION>_<KEY>, e.g., NSEQUANT_DATA_ROOT
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".nsequant"))
	v.AddConfigPath("/etc/nsequant")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

// Default returns the built-in configuration without consulting files or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	cfg.derive()
	return &cfg
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Data.Root == "" {
		return fmt.Errorf("config: data.root must be set")
	}
	if c.Data.LoadWorkers <= 0 {
		return fmt.Errorf("config: data.load_workers must be positive, got %d", c.Data.LoadWorkers)
	}
	if c.Analysis.DefaultTopN <= 0 || c.Analysis.MaxTopN <= 0 {
		return fmt.Errorf("config: analysis top_n limits must be positive")
	}
	if c.Analysis.DefaultTopN > c.Analysis.MaxTopN {
		return fmt.Errorf("config: analysis.default_top_n (%d) exceeds max_top_n (%d)",
			c.Analysis.DefaultTopN, c.Analysis.MaxTopN)
	}
	if _, ok := models.ParseDetailLevel(c.Analysis.DefaultDetail); !ok {
		return fmt.Errorf("config: unknown analysis.default_detail %q", c.Analysis.DefaultDetail)
	}
	if c.Analysis.SurgeRecentDays <= 0 {
		return fmt.Errorf("config: analysis.surge_recent_days must be positive")
	}
	return nil
}

// derive fills settings whose defaults depend on other settings.
func (c *Config) derive() {
	if c.Data.CacheDir == "" && c.Data.Root != "" {
		c.Data.CacheDir = filepath.Join(c.Data.Root, "cache")
	}
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
	cfg.derive()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Data defaults (layout written by the NSE downloader)
	v.SetDefault("data.root", "./data")
	v.SetDefault("data.raw_dir", "NSE_RawData")
	v.SetDefault("data.indices_dir", "NSE_indices_list")
	v.SetDefault("data.sector_file", "sector_mapping.csv")
	v.SetDefault("data.cache_dir", "")
	v.SetDefault("data.load_workers", 8)
	v.SetDefault("data.series_priority", []string{"EQ", "BE", "BZ", "SM", "ST"})

	// Analysis defaults
	v.SetDefault("analysis.default_top_n", 10)
	v.SetDefault("analysis.max_top_n", 100)
	v.SetDefault("analysis.default_detail", "standard")
	v.SetDefault("analysis.min_valid_close", 0.5) // closes at or below are bad ticks
	v.SetDefault("analysis.surge_recent_days", 3)
	v.SetDefault("analysis.surge_threshold", 2.0)
	v.SetDefault("analysis.breakout_threshold", 10.0)
	v.SetDefault("analysis.breakout_max_volatility", 15.0)
	v.SetDefault("analysis.min_delivery_pct", 50.0)
	v.SetDefault("analysis.week52_min_days", 120)

	// API defaults
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8090)
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.batch_limit", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.file", "logs/nsequant.log")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 14)
	v.SetDefault("logging.compress", true)
}

func joinRoot(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
