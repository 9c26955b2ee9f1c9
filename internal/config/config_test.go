package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the loader at an empty directory so no stray config.yaml is found
func isolate(t *testing.T) string {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("JET_CHARTER_CONFIG_PATH", "")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "jet_charter.db", cfg.DBPath)
	assert.Equal(t, "internal/database/datasets/airports.csv", cfg.Seed.AirportsCSV)
	assert.Equal(t, 5, cfg.Search.PrimaryThreshold)
	assert.Equal(t, 10, cfg.Search.SecondaryCap)
	assert.Equal(t, 10.0, cfg.Pricing.DefaultCommissionRate)
	assert.Equal(t, 100, cfg.Tracking.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Tracking.FlushInterval())
	assert.Equal(t, time.Minute, cfg.Tracking.SyncEvery())
	assert.Equal(t, 5.0, cfg.Tracking.SnapRadiusNM)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "charter.yaml")
	content := "listen_addr: \":9090\"\n" +
		"search:\n  primary_threshold: 3\n" +
		"pricing:\n  default_commission_rate: 12.5\n" +
		"log:\n  level: debug\n  format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("JET_CHARTER_CONFIG_PATH", path)
	t.Setenv("JET_CHARTER_SEARCH_SECONDARY_CAP", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 3, cfg.Search.PrimaryThreshold)
	assert.Equal(t, 4, cfg.Search.SecondaryCap)
	assert.Equal(t, 12.5, cfg.Pricing.DefaultCommissionRate)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_BadFile(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: [unclosed\n"), 0o644))
	t.Setenv("JET_CHARTER_CONFIG_PATH", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidEnv(t *testing.T) {
	isolate(t)
	t.Setenv("JET_CHARTER_PRICING_DEFAULT_COMMISSION_RATE", "150")

	_, err := Load()
	assert.ErrorContains(t, err, "default_commission_rate")
}

func validConfig() *Config {
	return &Config{
		ListenAddr: ":8080",
		DBPath:     "test.db",
		Search:     SearchConfig{PrimaryThreshold: 5, SecondaryCap: 10},
		Pricing:    PricingConfig{DefaultCommissionRate: 10},
		Tracking:   TrackingConfig{BatchSize: 100, BatchTimeout: 5, SyncInterval: 60, SnapRadiusNM: 5},
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"uppercase level", func(c *Config) { c.Log.Level = "DEBUG" }, ""},
		{"zero commission", func(c *Config) { c.Pricing.DefaultCommissionRate = 0 }, ""},
		{"no listen addr", func(c *Config) { c.ListenAddr = "" }, "listen_addr"},
		{"no db path", func(c *Config) { c.DBPath = "" }, "db_path"},
		{"zero threshold", func(c *Config) { c.Search.PrimaryThreshold = 0 }, "primary_threshold"},
		{"zero cap", func(c *Config) { c.Search.SecondaryCap = 0 }, "secondary_cap"},
		{"negative commission", func(c *Config) { c.Pricing.DefaultCommissionRate = -1 }, "default_commission_rate"},
		{"zero batch", func(c *Config) { c.Tracking.BatchSize = 0 }, "batch_size"},
		{"zero timeout", func(c *Config) { c.Tracking.BatchTimeout = 0 }, "batch_timeout"},
		{"zero sync", func(c *Config) { c.Tracking.SyncInterval = 0 }, "sync_interval"},
		{"zero radius", func(c *Config) { c.Tracking.SnapRadiusNM = 0 }, "snap_radius_nm"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
