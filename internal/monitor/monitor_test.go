package monitor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowradar/flowradar/internal/alerts"
	"github.com/flowradar/flowradar/internal/config"
	"github.com/flowradar/flowradar/internal/flow"
	"github.com/flowradar/flowradar/internal/provider"
	"github.com/flowradar/flowradar/internal/storage"
)

// eastern builds a wall-clock time in the exchange's zone.
func eastern(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, easternTime())
}

func TestMarketOpen(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		open bool
	}{
		{"monday mid-session", eastern(2025, time.June, 16, 12, 0), true},
		{"opening bell", eastern(2025, time.June, 16, 9, 30), true},
		{"one minute before open", eastern(2025, time.June, 16, 9, 29), false},
		{"last session minute", eastern(2025, time.June, 16, 15, 59), true},
		{"closing bell", eastern(2025, time.June, 16, 16, 0), false},
		{"pre-market", eastern(2025, time.June, 16, 7, 0), false},
		{"after hours", eastern(2025, time.June, 16, 19, 0), false},
		{"saturday", eastern(2025, time.June, 14, 12, 0), false},
		{"sunday", eastern(2025, time.June, 15, 12, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.open, MarketOpen(tt.t))
		})
	}
}

func TestMarketOpen_ConvertsFromOtherZones(t *testing.T) {
	// 13:00 UTC on a June Monday is 09:00 Eastern: still pre-market.
	utc := time.Date(2025, time.June, 16, 13, 0, 0, 0, time.UTC)
	assert.False(t, MarketOpen(utc))

	// 14:00 UTC is 10:00 Eastern.
	assert.True(t, MarketOpen(utc.Add(time.Hour)))
}

func TestNextOpen(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			name: "pre-market same day",
			from: eastern(2025, time.June, 16, 8, 0),
			want: eastern(2025, time.June, 16, 9, 30),
		},
		{
			name: "mid-session rolls to next day",
			from: eastern(2025, time.June, 16, 12, 0),
			want: eastern(2025, time.June, 17, 9, 30),
		},
		{
			name: "friday evening rolls over the weekend",
			from: eastern(2025, time.June, 13, 17, 0),
			want: eastern(2025, time.June, 16, 9, 30),
		},
		{
			name: "saturday rolls to monday",
			from: eastern(2025, time.June, 14, 10, 0),
			want: eastern(2025, time.June, 16, 9, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, NextOpen(tt.from).Equal(tt.want),
				"NextOpen(%s) = %s, want %s", tt.from, NextOpen(tt.from), tt.want)
		})
	}
}

type sinkFunc func(alerts.Alert)

func (f sinkFunc) Notify(a alerts.Alert) { f(a) }

func newTestMonitor(t *testing.T, cfg config.MonitorConfig) *BackgroundFlowMonitor {
	t.Helper()

	stub := provider.NewStubProvider()
	scanner := flow.NewScanner(stub, flow.DefaultScannerConfig())

	db, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "flow.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dispatcher := alerts.NewDispatcher(alerts.NewFilter(alerts.DefaultFilterConfig()),
		sinkFunc(func(alerts.Alert) {}), 16)

	return New(cfg, scanner, db, dispatcher, nil)
}

func closedMarketConfig() config.MonitorConfig {
	cfg := config.Default().Monitor
	cfg.ClosedMarketPoll = 10 * time.Millisecond
	cfg.ShutdownGracePeriod = 2 * time.Second
	return cfg
}

func TestMonitor_StartStop(t *testing.T) {
	m := newTestMonitor(t, closedMarketConfig())
	// Pin the clock to a weekend so the loop idles in closed-market polls.
	m.now = func() time.Time { return eastern(2025, time.June, 14, 12, 0) }

	assert.Equal(t, StateStopped, m.State())

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, StateRunning, m.State())

	require.NoError(t, m.Stop())
	assert.Equal(t, StateStopped, m.State())
}

func TestMonitor_StartTwiceIsNoop(t *testing.T) {
	m := newTestMonitor(t, closedMarketConfig())
	m.now = func() time.Time { return eastern(2025, time.June, 14, 12, 0) }

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Start(context.Background()), "second Start is a no-op")
	require.NoError(t, m.Stop())
}

func TestMonitor_StopTwiceIsNoop(t *testing.T) {
	m := newTestMonitor(t, closedMarketConfig())
	m.now = func() time.Time { return eastern(2025, time.June, 14, 12, 0) }

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop())
	require.NoError(t, m.Stop(), "stopping a stopped monitor is a no-op")
}

func TestMonitor_ClosedMarketSkipsScans(t *testing.T) {
	m := newTestMonitor(t, closedMarketConfig())
	m.now = func() time.Time { return eastern(2025, time.June, 14, 12, 0) }

	require.NoError(t, m.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, m.Stop())

	assert.True(t, m.LastScan().IsZero(), "no scan cycle should run on a weekend")
}

func TestMonitor_OpenMarketRunsCycle(t *testing.T) {
	cfg := closedMarketConfig()
	cfg.ScanInterval = time.Minute
	m := newTestMonitor(t, cfg)
	m.now = func() time.Time { return eastern(2025, time.June, 16, 12, 0) }

	require.NoError(t, m.Start(context.Background()))

	// The stub has no quotes, so every ticker fails soft; the cycle still
	// completes and stamps lastScan.
	require.Eventually(t, func() bool { return !m.LastScan().IsZero() },
		2*time.Second, 10*time.Millisecond, "first scan cycle should complete")

	require.NoError(t, m.Stop())
}
