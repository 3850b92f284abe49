// Package metrics exposes Prometheus instrumentation for the scan
// pipeline, alert dispatch and cache tiers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector, registered on an injected registry so
// tests can assert on counter values without global state.
type Metrics struct {
	registry *prometheus.Registry

	ScanCycles     prometheus.Counter
	ScanDuration   prometheus.Histogram
	TickersScanned prometheus.Counter
	ScanErrors     prometheus.Counter

	FlowEvents       *prometheus.CounterVec
	AlertsDispatched *prometheus.CounterVec
	AlertsSuppressed prometheus.Counter

	ProviderErrors *prometheus.CounterVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers all collectors on the given registry.
func NewWithRegistry(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		ScanCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowradar_scan_cycles_total",
			Help: "Completed watchlist scan cycles.",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowradar_scan_duration_seconds",
			Help:    "Wall time of one full watchlist scan.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		TickersScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowradar_tickers_scanned_total",
			Help: "Individual ticker scans attempted.",
		}),
		ScanErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowradar_scan_errors_total",
			Help: "Ticker scans that failed and were skipped.",
		}),
		FlowEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowradar_flow_events_total",
			Help: "Unusual flow events detected, by kind.",
		}, []string{"kind"}),
		AlertsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowradar_alerts_dispatched_total",
			Help: "Alerts that passed the filter and reached channels, by severity.",
		}, []string{"severity"}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowradar_alerts_suppressed_total",
			Help: "Alerts dropped by the severity gate or dedup cooldown.",
		}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowradar_provider_errors_total",
			Help: "Provider call failures, by operation.",
		}, []string{"op"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowradar_cache_hits_total",
			Help: "Tiered cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowradar_cache_misses_total",
			Help: "Tiered cache misses.",
		}),
	}

	registry.MustRegister(
		m.ScanCycles, m.ScanDuration, m.TickersScanned, m.ScanErrors,
		m.FlowEvents, m.AlertsDispatched, m.AlertsSuppressed,
		m.ProviderErrors, m.CacheHits, m.CacheMisses,
	)
	return m
}

// Registry exposes the registry for the HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
