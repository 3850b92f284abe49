package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flowradar/flowradar/internal/alerts"
	"github.com/flowradar/flowradar/internal/config"
	"github.com/flowradar/flowradar/internal/flow"
	"github.com/flowradar/flowradar/internal/metrics"
	"github.com/flowradar/flowradar/internal/storage"
)

// State is the monitor lifecycle state.
type State string

const (
	StateStopped State = "STOPPED"
	StateRunning State = "RUNNING"
)

// BackgroundFlowMonitor scans the watchlist on an interval while the
// market is open, persists results and publishes rule alerts through
// the dispatcher. Start and Stop are idempotent.
type BackgroundFlowMonitor struct {
	cfg        config.MonitorConfig
	scanner    *flow.Scanner
	db         *storage.FlowDatabase
	dispatcher *alerts.Dispatcher
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	// now is injectable for market-hours tests.
	now func() time.Time

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	lastScan time.Time
}

// New builds a monitor. metrics may be nil when instrumentation is off.
func New(cfg config.MonitorConfig, scanner *flow.Scanner, db *storage.FlowDatabase,
	dispatcher *alerts.Dispatcher, m *metrics.Metrics) *BackgroundFlowMonitor {
	return &BackgroundFlowMonitor{
		cfg:        cfg,
		scanner:    scanner,
		db:         db,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     log.With().Str("component", "flow_monitor").Logger(),
		now:        time.Now,
		state:      StateStopped,
	}
}

// State returns the current lifecycle state.
func (m *BackgroundFlowMonitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastScan returns when the last scan cycle completed.
func (m *BackgroundFlowMonitor) LastScan() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastScan
}

// Start launches the scan loop and the dispatcher consumer. Calling
// Start on a running monitor is a no-op.
func (m *BackgroundFlowMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateRunning {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.state = StateRunning

	go m.dispatcher.Run(runCtx)
	go func() {
		defer close(m.done)
		m.loop(runCtx)
	}()

	m.logger.Info().
		Strs("watchlist", m.cfg.Watchlist).
		Dur("interval", m.cfg.ScanInterval).
		Msg("Flow monitor started")
	return nil
}

// Stop cancels the loop and waits up to the grace period for it to
// drain. Stopping a stopped monitor is a no-op.
func (m *BackgroundFlowMonitor) Stop() error {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return nil
	}
	m.state = StateStopped
	cancel := m.cancel
	done := m.done
	grace := m.cfg.ShutdownGracePeriod
	m.mu.Unlock()

	cancel()
	if grace <= 0 {
		grace = 10 * time.Second
	}
	select {
	case <-done:
		m.logger.Info().Msg("Flow monitor stopped")
		return nil
	case <-time.After(grace):
		return fmt.Errorf("monitor did not stop within %s", grace)
	}
}

// loop alternates between scan cycles while the market is open and
// short polls while it is closed, so a restart never waits a full scan
// interval to notice the open.
func (m *BackgroundFlowMonitor) loop(ctx context.Context) {
	poll := m.cfg.ClosedMarketPoll
	if poll <= 0 || poll > time.Minute {
		poll = time.Minute
	}

	for {
		if ctx.Err() != nil {
			return
		}

		if !MarketOpen(m.now()) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(poll):
			}
			continue
		}

		m.runCycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.ScanInterval):
		}
	}
}

// runCycle scans every watchlist ticker once. Per-ticker failures are
// logged and skipped.
func (m *BackgroundFlowMonitor) runCycle(ctx context.Context) {
	start := m.now()
	m.logger.Info().Int("tickers", len(m.cfg.Watchlist)).Msg("Scan cycle starting")

	for _, ticker := range m.cfg.Watchlist {
		if ctx.Err() != nil {
			return
		}
		if m.metrics != nil {
			m.metrics.TickersScanned.Inc()
		}
		if err := m.scanTicker(ctx, ticker); err != nil {
			if m.metrics != nil {
				m.metrics.ScanErrors.Inc()
			}
			m.logger.Warn().Err(err).Str("ticker", ticker).Msg("Ticker scan failed, skipping")
		}
	}

	elapsed := m.now().Sub(start)
	if m.metrics != nil {
		m.metrics.ScanCycles.Inc()
		m.metrics.ScanDuration.Observe(elapsed.Seconds())
	}
	m.mu.Lock()
	m.lastScan = m.now()
	m.mu.Unlock()
	m.logger.Info().Dur("elapsed", elapsed).Msg("Scan cycle complete")
}

func (m *BackgroundFlowMonitor) scanTicker(ctx context.Context, ticker string) error {
	result, err := m.scanner.Scan(ctx, ticker, m.cfg.MaxExpirations, m.cfg.LookbackTrades)
	if err != nil {
		return err
	}

	for _, event := range result.Events {
		if m.metrics != nil {
			for _, kind := range event.Kinds() {
				m.metrics.FlowEvents.WithLabelValues(string(kind)).Inc()
			}
		}
		if err := m.db.SaveFlowEvent(ctx, event); err != nil {
			m.logger.Warn().Err(err).Str("ticker", ticker).Msg("Failed to persist flow event")
		}
	}

	summary := storage.SummaryFromStats(m.now(), result.Stats)
	if err := m.db.UpsertDailySummary(ctx, summary); err != nil {
		m.logger.Warn().Err(err).Str("ticker", ticker).Msg("Failed to persist daily summary")
	}

	for _, match := range result.Alerts {
		if match.Alert.Severity == alerts.SeverityLow && !m.cfg.IncludeLowSeverity {
			continue
		}
		m.dispatcher.Publish(ticker, match.Alert)
	}
	return nil
}
