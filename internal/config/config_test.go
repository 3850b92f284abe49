package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"SPY", "QQQ", "IWM"}, cfg.Monitor.Watchlist)
	assert.Equal(t, 15*time.Minute, cfg.Monitor.ScanInterval)
	assert.Equal(t, ":8090", cfg.Monitor.HTTPAddr)
	assert.Equal(t, 90, cfg.RetentionDays)
	assert.False(t, cfg.Redis.Enabled)
	assert.NoError(t, cfg.Validate(), "defaults must always validate")
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowradar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
monitor:
  watchlist: [AAPL, TSLA]
  scan_interval: 5m
discovery:
  min_score: 75
retention_days: 30
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "TSLA"}, cfg.Monitor.Watchlist)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.ScanInterval)
	assert.Equal(t, 75.0, cfg.Discovery.MinScore)
	assert.Equal(t, 30, cfg.RetentionDays)
	// Untouched sections keep their defaults.
	assert.Equal(t, ":8090", cfg.Monitor.HTTPAddr)
	assert.Equal(t, Default().Database.Path, cfg.Database.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitor: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitor:\n  scan_interval: 5s\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan_interval")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty watchlist",
			mutate:  func(c *Config) { c.Monitor.Watchlist = nil },
			wantErr: "watchlist",
		},
		{
			name:    "interval too short",
			mutate:  func(c *Config) { c.Monitor.ScanInterval = 30 * time.Second },
			wantErr: "scan_interval",
		},
		{
			name:    "min score out of range",
			mutate:  func(c *Config) { c.Discovery.MinScore = 101 },
			wantErr: "min_score",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Discovery.Workers = 0 },
			wantErr: "workers",
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.RetentionDays = 0 },
			wantErr: "retention_days",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Monitor.Watchlist = []string{"NVDA"}

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, loaded.Monitor.Watchlist)
	assert.Equal(t, cfg.Monitor.ScanInterval, loaded.Monitor.ScanInterval)
}
