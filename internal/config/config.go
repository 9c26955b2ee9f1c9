package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the charter service
type Config struct {
	ListenAddr string
	DBPath     string
	Seed       SeedConfig
	Search     SearchConfig
	Pricing    PricingConfig
	Tracking   TrackingConfig
	Log        LogConfig
}

// SeedConfig names the CSV files loaded into empty tables at startup
type SeedConfig struct {
	AirportsCSV string
	FleetCSV    string
}

type SearchConfig struct {
	PrimaryThreshold int
	SecondaryCap     int
}

type PricingConfig struct {
	DefaultCommissionRate float64
}

// TrackingConfig controls position report batching and location sync
type TrackingConfig struct {
	BatchSize    int
	BatchTimeout int // seconds
	SyncInterval int // seconds
	SnapRadiusNM float64
}

func (t TrackingConfig) FlushInterval() time.Duration {
	return time.Duration(t.BatchTimeout) * time.Second
}

func (t TrackingConfig) SyncEvery() time.Duration {
	return time.Duration(t.SyncInterval) * time.Second
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads defaults, then an optional YAML config file, then JET_CHARTER_*
// environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("db_path", "jet_charter.db")
	v.SetDefault("seed.airports_csv", "internal/database/datasets/airports.csv")
	v.SetDefault("seed.fleet_csv", "internal/database/datasets/fleet.csv")
	v.SetDefault("search.primary_threshold", 5)
	v.SetDefault("search.secondary_cap", 10)
	v.SetDefault("pricing.default_commission_rate", 10.0)
	v.SetDefault("tracking.batch_size", 100)
	v.SetDefault("tracking.batch_timeout", 5)
	v.SetDefault("tracking.sync_interval", 60)
	v.SetDefault("tracking.snap_radius_nm", 5.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/jet_charter")
	v.AddConfigPath(".")

	if configPath := os.Getenv("JET_CHARTER_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	// A missing config file is fine; defaults and env vars still apply.
	// The logger is not initialized yet, so nothing is logged here.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("JET_CHARTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		ListenAddr: v.GetString("listen_addr"),
		DBPath:     v.GetString("db_path"),
		Seed: SeedConfig{
			AirportsCSV: v.GetString("seed.airports_csv"),
			FleetCSV:    v.GetString("seed.fleet_csv"),
		},
		Search: SearchConfig{
			PrimaryThreshold: v.GetInt("search.primary_threshold"),
			SecondaryCap:     v.GetInt("search.secondary_cap"),
		},
		Pricing: PricingConfig{
			DefaultCommissionRate: v.GetFloat64("pricing.default_commission_rate"),
		},
		Tracking: TrackingConfig{
			BatchSize:    v.GetInt("tracking.batch_size"),
			BatchTimeout: v.GetInt("tracking.batch_timeout"),
			SyncInterval: v.GetInt("tracking.sync_interval"),
			SnapRadiusNM: v.GetFloat64("tracking.snap_radius_nm"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}

	if cfg.Search.PrimaryThreshold <= 0 {
		return fmt.Errorf("search.primary_threshold must be greater than 0")
	}
	if cfg.Search.SecondaryCap <= 0 {
		return fmt.Errorf("search.secondary_cap must be greater than 0")
	}

	if r := cfg.Pricing.DefaultCommissionRate; r < 0 || r > 100 {
		return fmt.Errorf("pricing.default_commission_rate must be between 0 and 100, got %v", r)
	}

	if cfg.Tracking.BatchSize <= 0 {
		return fmt.Errorf("tracking.batch_size must be greater than 0")
	}
	if cfg.Tracking.BatchTimeout <= 0 {
		return fmt.Errorf("tracking.batch_timeout must be greater than 0")
	}
	if cfg.Tracking.SyncInterval <= 0 {
		return fmt.Errorf("tracking.sync_interval must be greater than 0")
	}
	if cfg.Tracking.SnapRadiusNM <= 0 {
		return fmt.Errorf("tracking.snap_radius_nm must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
