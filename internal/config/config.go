// Package config loads the radar's YAML configuration and applies
// defaults for anything the file leaves out.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flowradar/flowradar/internal/alerts"
	"github.com/flowradar/flowradar/internal/cache"
	"github.com/flowradar/flowradar/internal/discovery"
	"github.com/flowradar/flowradar/internal/flow"
	"github.com/flowradar/flowradar/internal/provider"
	"github.com/flowradar/flowradar/internal/quality"
	"github.com/flowradar/flowradar/internal/signals"
	"github.com/flowradar/flowradar/internal/storage"
	"github.com/flowradar/flowradar/internal/technical"
)

// MonitorConfig controls the background monitoring loop.
type MonitorConfig struct {
	Watchlist           []string      `yaml:"watchlist"`
	ScanInterval        time.Duration `yaml:"scan_interval"`
	ClosedMarketPoll    time.Duration `yaml:"closed_market_poll"`
	IncludeLowSeverity  bool          `yaml:"include_low_severity"`
	MaxExpirations      int           `yaml:"max_expirations"`
	LookbackTrades      int           `yaml:"lookback_trades"`
	HTTPAddr            string        `yaml:"http_addr"`
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"`
}

// Config is the full application configuration.
type Config struct {
	Monitor   MonitorConfig            `yaml:"monitor"`
	Scanner   flow.ScannerConfig       `yaml:"scanner"`
	Detector  signals.DetectorConfig   `yaml:"detector"`
	Validator quality.ValidatorConfig  `yaml:"validator"`
	Technical technical.AnalyzerConfig `yaml:"technical"`
	Discovery discovery.ScorerConfig   `yaml:"discovery"`
	Guards    provider.GuardConfig     `yaml:"guards"`
	Filter    alerts.FilterConfig      `yaml:"filter"`
	Notifier  alerts.NotifierConfig    `yaml:"notifier"`
	Cache     cache.Config             `yaml:"cache"`
	Redis     cache.RedisConfig        `yaml:"redis"`
	Database  storage.Config           `yaml:"database"`

	RetentionDays int `yaml:"retention_days"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Monitor: MonitorConfig{
			Watchlist:           []string{"SPY", "QQQ", "IWM"},
			ScanInterval:        15 * time.Minute,
			ClosedMarketPoll:    60 * time.Second,
			MaxExpirations:      2,
			LookbackTrades:      200,
			HTTPAddr:            ":8090",
			ShutdownGracePeriod: 10 * time.Second,
		},
		Scanner:       flow.DefaultScannerConfig(),
		Detector:      signals.DefaultDetectorConfig(),
		Validator:     quality.DefaultValidatorConfig(),
		Technical:     technical.DefaultAnalyzerConfig(),
		Discovery:     discovery.DefaultScorerConfig(),
		Guards:        provider.DefaultGuardConfig(),
		Filter:        alerts.DefaultFilterConfig(),
		Notifier:      alerts.DefaultNotifierConfig(),
		Cache:         cache.DefaultConfig(),
		Redis:         cache.DefaultRedisConfig(),
		Database:      storage.DefaultConfig(),
		RetentionDays: 90,
	}
}

// Load reads a YAML file over the defaults. A missing path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration back as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the monitor cannot run with.
func (c *Config) Validate() error {
	if len(c.Monitor.Watchlist) == 0 {
		return fmt.Errorf("monitor.watchlist must list at least one ticker")
	}
	if c.Monitor.ScanInterval < time.Minute {
		return fmt.Errorf("monitor.scan_interval must be at least 1m, got %s", c.Monitor.ScanInterval)
	}
	if c.Discovery.MinScore < 0 || c.Discovery.MinScore > 100 {
		return fmt.Errorf("discovery.min_score must be in [0,100], got %.1f", c.Discovery.MinScore)
	}
	if c.Discovery.Workers < 1 {
		return fmt.Errorf("discovery.workers must be positive, got %d", c.Discovery.Workers)
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be positive, got %d", c.RetentionDays)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	return nil
}
