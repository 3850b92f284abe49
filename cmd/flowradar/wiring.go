package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flowradar/flowradar/internal/cache"
	"github.com/flowradar/flowradar/internal/config"
	"github.com/flowradar/flowradar/internal/metrics"
	"github.com/flowradar/flowradar/internal/provider"
	"github.com/flowradar/flowradar/internal/storage"
)

// loadConfig reads the config file named by --config, or defaults.
func loadConfig() (*config.Config, error) {
	return config.Load(flagConfig)
}

// buildProvider assembles the data source behind its guards, fallback
// chain and cache tiers, instrumented when prom is non-nil. The
// returned closer releases the Redis connection when one was dialed.
// Vendor API integration lives outside this binary; without --stub
// there is nothing to scan against.
func buildProvider(ctx context.Context, cfg *config.Config, prom *metrics.Metrics) (provider.Provider, func(), error) {
	if !flagStub {
		return nil, nil, fmt.Errorf("no market data vendor configured; run with --stub for the seeded demo provider")
	}

	stub := provider.NewStubProvider()
	seedDemoData(stub, cfg.Monitor.Watchlist)

	guarded := provider.NewGuardedProvider(stub, cfg.Guards)
	if prom != nil {
		guarded.Instrument(func(op string) {
			prom.ProviderErrors.WithLabelValues(op).Inc()
		})
	}

	chain, err := provider.NewFallbackChain(guarded)
	if err != nil {
		return nil, nil, err
	}

	tiered := cache.New(cfg.Cache)
	if prom != nil {
		tiered.Instrument(prom.CacheHits.Inc, prom.CacheMisses.Inc)
	}

	cached := provider.NewCachedProvider(chain, tiered)
	closer := func() {}
	if cfg.Redis.Enabled {
		shared, err := cache.NewRedisCache(ctx, cfg.Redis, cfg.Cache)
		if err != nil {
			return nil, nil, fmt.Errorf("enable redis cache: %w", err)
		}
		cached.WithRedis(shared)
		closer = func() { shared.Close() }
	}
	return cached, closer, nil
}

// openDatabase opens the SQLite store, creating its directory first.
func openDatabase(cfg *config.Config) (*storage.FlowDatabase, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}
	return storage.Open(cfg.Database)
}
