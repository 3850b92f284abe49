package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAllCollectors(t *testing.T) {
	m := New()

	m.ScanCycles.Inc()
	m.TickersScanned.Add(3)
	m.ScanErrors.Inc()
	m.FlowEvents.WithLabelValues("BLOCK").Inc()
	m.AlertsDispatched.WithLabelValues("HIGH").Inc()
	m.AlertsSuppressed.Inc()
	m.ProviderErrors.WithLabelValues("quote").Inc()
	m.CacheHits.Inc()
	m.CacheMisses.Inc()
	m.ScanDuration.Observe(1.5)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		names[mf.GetName()] = mf
	}
	for _, want := range []string{
		"flowradar_scan_cycles_total",
		"flowradar_scan_duration_seconds",
		"flowradar_tickers_scanned_total",
		"flowradar_scan_errors_total",
		"flowradar_flow_events_total",
		"flowradar_alerts_dispatched_total",
		"flowradar_alerts_suppressed_total",
		"flowradar_provider_errors_total",
		"flowradar_cache_hits_total",
		"flowradar_cache_misses_total",
	} {
		assert.Contains(t, names, want)
	}

	hist := names["flowradar_scan_duration_seconds"].GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), hist.GetSampleCount())
	assert.InDelta(t, 1.5, hist.GetSampleSum(), 0.001)
}

func TestMetrics_CounterValues(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ScanCycles.Inc()
	m.ScanCycles.Inc()
	m.TickersScanned.Add(5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ScanCycles))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.TickersScanned))
	assert.Zero(t, testutil.ToFloat64(m.ScanErrors))
}

func TestMetrics_VecLabels(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.FlowEvents.WithLabelValues("BLOCK").Inc()
	m.FlowEvents.WithLabelValues("BLOCK").Inc()
	m.FlowEvents.WithLabelValues("SWEEP").Inc()
	m.AlertsDispatched.WithLabelValues("CRITICAL").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FlowEvents.WithLabelValues("BLOCK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FlowEvents.WithLabelValues("SWEEP")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsDispatched.WithLabelValues("CRITICAL")))
}

func TestNewWithRegistry_IsolatedRegistries(t *testing.T) {
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.ScanCycles.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ScanCycles))
	assert.Zero(t, testutil.ToFloat64(b.ScanCycles))
	assert.NotSame(t, a.Registry(), b.Registry())
}
