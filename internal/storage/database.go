// Package storage persists flow events, daily flow summaries and
// dispatched alerts in SQLite, and answers the historical queries the
// divergence and reporting paths need.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/flowradar/flowradar/internal/alerts"
	"github.com/flowradar/flowradar/internal/flow"
)

const schema = `
CREATE TABLE IF NOT EXISTS flow_events (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	ticker           TEXT NOT NULL,
	strike           REAL NOT NULL,
	"right"          TEXT NOT NULL,
	expiration       TIMESTAMP NOT NULL,
	block_trade      BOOLEAN NOT NULL DEFAULT 0,
	is_sweep         BOOLEAN NOT NULL DEFAULT 0,
	aggressive       BOOLEAN NOT NULL DEFAULT 0,
	total_volume     INTEGER NOT NULL DEFAULT 0,
	largest_trade    INTEGER NOT NULL DEFAULT 0,
	avg_trade_size   REAL NOT NULL DEFAULT 0,
	premium_flow     REAL NOT NULL DEFAULT 0,
	aggressive_ratio REAL NOT NULL DEFAULT 0,
	sweep_exchanges  INTEGER NOT NULL DEFAULT 0,
	scanned_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_flow_events_ticker_time ON flow_events(ticker, scanned_at);

CREATE TABLE IF NOT EXISTS daily_summary (
	date               TEXT NOT NULL,
	ticker             TEXT NOT NULL,
	total_premium_flow REAL NOT NULL DEFAULT 0,
	put_flow           REAL NOT NULL DEFAULT 0,
	call_flow          REAL NOT NULL DEFAULT 0,
	put_call_flow_ratio REAL NOT NULL DEFAULT 0,
	block_count        INTEGER NOT NULL DEFAULT 0,
	sweep_count        INTEGER NOT NULL DEFAULT 0,
	aggressive_count   INTEGER NOT NULL DEFAULT 0,
	put_block_premium  REAL NOT NULL DEFAULT 0,
	put_sweep_count    INTEGER NOT NULL DEFAULT 0,
	UNIQUE(date, ticker)
);

CREATE TABLE IF NOT EXISTS alerts (
	id             TEXT PRIMARY KEY,
	timestamp      TIMESTAMP NOT NULL,
	ticker         TEXT NOT NULL,
	type           TEXT NOT NULL,
	severity       TEXT NOT NULL,
	title          TEXT NOT NULL,
	message        TEXT NOT NULL,
	recommendation TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_alerts_ticker_time ON alerts(ticker, timestamp);
`

// DailySummary is one ticker's aggregated flow for one trading day.
// Date is YYYY-MM-DD.
type DailySummary struct {
	Date             string  `json:"date" db:"date"`
	Ticker           string  `json:"ticker" db:"ticker"`
	TotalPremiumFlow float64 `json:"total_premium_flow" db:"total_premium_flow"`
	PutFlow          float64 `json:"put_flow" db:"put_flow"`
	CallFlow         float64 `json:"call_flow" db:"call_flow"`
	PutCallFlowRatio float64 `json:"put_call_flow_ratio" db:"put_call_flow_ratio"`
	BlockCount       int     `json:"block_count" db:"block_count"`
	SweepCount       int     `json:"sweep_count" db:"sweep_count"`
	AggressiveCount  int     `json:"aggressive_count" db:"aggressive_count"`
	PutBlockPremium  float64 `json:"put_block_premium" db:"put_block_premium"`
	PutSweepCount    int     `json:"put_sweep_count" db:"put_sweep_count"`
}

// SummaryFromStats converts one scan's aggregate into a summary row
// keyed by the given day.
func SummaryFromStats(day time.Time, stats flow.TickerStats) DailySummary {
	return DailySummary{
		Date:             day.Format("2006-01-02"),
		Ticker:           stats.Ticker,
		TotalPremiumFlow: stats.TotalPremiumFlow,
		PutFlow:          stats.PutFlow,
		CallFlow:         stats.CallFlow,
		PutCallFlowRatio: stats.PutCallFlowRatio,
		BlockCount:       stats.BlockCount,
		SweepCount:       stats.SweepCount,
		AggressiveCount:  stats.AggressiveCount,
		PutBlockPremium:  stats.PutBlockPremium,
		PutSweepCount:    stats.PutSweepCount,
	}
}

// Divergence flags today's flow against a trailing baseline. Put and
// call flow carry their own baselines so a one-sided spike inside flat
// total flow still trips.
type Divergence struct {
	Ticker           string  `json:"ticker"`
	TodayFlow        float64 `json:"today_flow"`
	BaselineFlow     float64 `json:"baseline_flow"`
	FlowRatio        float64 `json:"flow_ratio"`
	TodayPutFlow     float64 `json:"today_put_flow"`
	BaselinePutFlow  float64 `json:"baseline_put_flow"`
	PutFlowRatio     float64 `json:"put_flow_ratio"`
	TodayCallFlow    float64 `json:"today_call_flow"`
	BaselineCallFlow float64 `json:"baseline_call_flow"`
	CallFlowRatio    float64 `json:"call_flow_ratio"`
	TodayPCRatio     float64 `json:"today_pc_ratio"`
	BaselinePC       float64 `json:"baseline_pc"`
	FlowDiverged     bool    `json:"flow_diverged"`
	PutDiverged      bool    `json:"put_diverged"`
	CallDiverged     bool    `json:"call_diverged"`
	RatioDiverged    bool    `json:"ratio_diverged"`
}

// Diverged reports whether any divergence condition tripped.
func (d Divergence) Diverged() bool {
	return d.FlowDiverged || d.PutDiverged || d.CallDiverged || d.RatioDiverged
}

// TopFlowEntry is one row of the top-flow leaderboard.
type TopFlowEntry struct {
	Ticker    string  `json:"ticker" db:"ticker"`
	TotalFlow float64 `json:"total_flow" db:"total_flow"`
	Days      int     `json:"days" db:"days"`
}

// Stats summarizes the database contents.
type Stats struct {
	FlowEvents     int64 `json:"flow_events" db:"flow_events"`
	DailySummaries int64 `json:"daily_summaries" db:"daily_summaries"`
	Alerts         int64 `json:"alerts" db:"alerts"`
}

// Config locates the database file.
type Config struct {
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig stores the database under data/flowradar.db with a
// five second per-query timeout.
func DefaultConfig() Config {
	return Config{
		Path:    "data/flowradar.db",
		Timeout: 5 * time.Second,
	}
}

// FlowDatabase is the SQLite-backed store.
type FlowDatabase struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Open opens (creating if needed) the database and applies the schema.
func Open(cfg Config) (*FlowDatabase, error) {
	db, err := sqlx.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Path, err)
	}
	// modernc sqlite serializes writes; keep one connection to avoid
	// SQLITE_BUSY under concurrent scans.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &FlowDatabase{db: db, timeout: timeout}, nil
}

// Close releases the underlying handle.
func (f *FlowDatabase) Close() error {
	return f.db.Close()
}

// SaveFlowEvent appends one classified event.
func (f *FlowDatabase) SaveFlowEvent(ctx context.Context, event flow.Event) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	query := `
		INSERT INTO flow_events
		(ticker, strike, "right", expiration, block_trade, is_sweep, aggressive,
		 total_volume, largest_trade, avg_trade_size, premium_flow,
		 aggressive_ratio, sweep_exchanges, scanned_at)
		VALUES (:ticker, :strike, :right, :expiration, :block_trade, :is_sweep, :aggressive,
		 :total_volume, :largest_trade, :avg_trade_size, :premium_flow,
		 :aggressive_ratio, :sweep_exchanges, :scanned_at)`

	if _, err := f.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("save flow event for %s: %w", event.Ticker, err)
	}
	return nil
}

// UpsertDailySummary writes one (date, ticker) summary, replacing any
// earlier summary for the same day so repeated scans stay idempotent.
func (f *FlowDatabase) UpsertDailySummary(ctx context.Context, summary DailySummary) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	query := `
		INSERT INTO daily_summary
		(date, ticker, total_premium_flow, put_flow, call_flow, put_call_flow_ratio,
		 block_count, sweep_count, aggressive_count, put_block_premium, put_sweep_count)
		VALUES (:date, :ticker, :total_premium_flow, :put_flow, :call_flow, :put_call_flow_ratio,
		 :block_count, :sweep_count, :aggressive_count, :put_block_premium, :put_sweep_count)
		ON CONFLICT(date, ticker) DO UPDATE SET
			total_premium_flow = excluded.total_premium_flow,
			put_flow = excluded.put_flow,
			call_flow = excluded.call_flow,
			put_call_flow_ratio = excluded.put_call_flow_ratio,
			block_count = excluded.block_count,
			sweep_count = excluded.sweep_count,
			aggressive_count = excluded.aggressive_count,
			put_block_premium = excluded.put_block_premium,
			put_sweep_count = excluded.put_sweep_count`

	if _, err := f.db.NamedExecContext(ctx, query, summary); err != nil {
		return fmt.Errorf("upsert daily summary for %s@%s: %w", summary.Ticker, summary.Date, err)
	}
	return nil
}

// SaveAlert appends one dispatched alert.
func (f *FlowDatabase) SaveAlert(ctx context.Context, alert alerts.Alert) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	query := `
		INSERT INTO alerts (id, timestamp, ticker, type, severity, title, message, recommendation)
		VALUES (:id, :timestamp, :ticker, :type, :severity, :title, :message, :recommendation)`

	if _, err := f.db.NamedExecContext(ctx, query, alert); err != nil {
		return fmt.Errorf("save alert %s: %w", alert.ID, err)
	}
	return nil
}

// FlowHistory returns events for a ticker within the trailing day
// window, newest first. kind filters to one event flag when non-empty.
func (f *FlowDatabase) FlowHistory(ctx context.Context, ticker string, days int, kind flow.EventKind) ([]flow.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	query := `SELECT ticker, strike, "right", expiration, block_trade, is_sweep, aggressive,
		total_volume, largest_trade, avg_trade_size, premium_flow,
		aggressive_ratio, sweep_exchanges, scanned_at
		FROM flow_events WHERE ticker = ? AND scanned_at >= ?`
	args := []interface{}{ticker, time.Now().AddDate(0, 0, -days)}

	switch kind {
	case flow.KindBlock:
		query += ` AND block_trade = 1`
	case flow.KindSweep:
		query += ` AND is_sweep = 1`
	case flow.KindAggressive:
		query += ` AND aggressive = 1`
	}
	query += ` ORDER BY scanned_at DESC`

	var events []flow.Event
	if err := f.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("flow history for %s: %w", ticker, err)
	}
	return events, nil
}

// DailySummaries returns a ticker's summaries over the trailing day
// window, newest first.
func (f *FlowDatabase) DailySummaries(ctx context.Context, ticker string, days int) ([]DailySummary, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	var summaries []DailySummary
	err := f.db.SelectContext(ctx, &summaries,
		`SELECT * FROM daily_summary WHERE ticker = ? AND date >= ? ORDER BY date DESC`,
		ticker, since)
	if err != nil {
		return nil, fmt.Errorf("daily summaries for %s: %w", ticker, err)
	}
	return summaries, nil
}

// RecentAlerts returns alerts for the trailing hours at or above the
// minimum severity, newest first. ticker narrows to one symbol when
// non-empty.
func (f *FlowDatabase) RecentAlerts(ctx context.Context, ticker string, hours int, minSeverity alerts.Severity) ([]alerts.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	query := `SELECT id, timestamp, ticker, type, severity, title, message, recommendation
		FROM alerts WHERE timestamp >= ?`
	args := []interface{}{time.Now().Add(-time.Duration(hours) * time.Hour)}
	if ticker != "" {
		query += ` AND ticker = ?`
		args = append(args, ticker)
	}
	query += ` ORDER BY timestamp DESC`

	var rows []alerts.Alert
	if err := f.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}

	// Severity ordering lives in Go, not in the table.
	minRank := minSeverity.Rank()
	filtered := rows[:0]
	for _, a := range rows {
		if a.Severity.Rank() >= minRank {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// DetectDivergence compares today's summary for a ticker against the
// mean of the trailing window (excluding today). Total, put and call
// flow each diverge when today exceeds twice their baseline mean; the
// put/call ratio diverges when it moves more than 1.0 from the
// baseline mean.
func (f *FlowDatabase) DetectDivergence(ctx context.Context, ticker string, trailingDays int) (*Divergence, error) {
	today := time.Now().Format("2006-01-02")

	summaries, err := f.DailySummaries(ctx, ticker, trailingDays)
	if err != nil {
		return nil, err
	}

	var todayRow *DailySummary
	var baselineFlow, baselinePut, baselineCall, baselinePC float64
	var baselineN int
	for i := range summaries {
		if summaries[i].Date == today {
			todayRow = &summaries[i]
			continue
		}
		baselineFlow += summaries[i].TotalPremiumFlow
		baselinePut += summaries[i].PutFlow
		baselineCall += summaries[i].CallFlow
		baselinePC += summaries[i].PutCallFlowRatio
		baselineN++
	}
	if todayRow == nil || baselineN == 0 {
		return &Divergence{Ticker: ticker}, nil
	}

	baselineFlow /= float64(baselineN)
	baselinePut /= float64(baselineN)
	baselineCall /= float64(baselineN)
	baselinePC /= float64(baselineN)

	d := &Divergence{
		Ticker:           ticker,
		TodayFlow:        todayRow.TotalPremiumFlow,
		BaselineFlow:     baselineFlow,
		TodayPutFlow:     todayRow.PutFlow,
		BaselinePutFlow:  baselinePut,
		TodayCallFlow:    todayRow.CallFlow,
		BaselineCallFlow: baselineCall,
		TodayPCRatio:     todayRow.PutCallFlowRatio,
		BaselinePC:       baselinePC,
	}
	if baselineFlow > 0 {
		d.FlowRatio = d.TodayFlow / baselineFlow
		d.FlowDiverged = d.FlowRatio > 2.0
	}
	if baselinePut > 0 {
		d.PutFlowRatio = d.TodayPutFlow / baselinePut
		d.PutDiverged = d.PutFlowRatio > 2.0
	}
	if baselineCall > 0 {
		d.CallFlowRatio = d.TodayCallFlow / baselineCall
		d.CallDiverged = d.CallFlowRatio > 2.0
	}
	d.RatioDiverged = math.Abs(d.TodayPCRatio-baselinePC) > 1.0
	return d, nil
}

// TopFlow ranks tickers by total premium flow over the trailing day
// window, dropping anything under minFlow.
func (f *FlowDatabase) TopFlow(ctx context.Context, days int, minFlow float64, limit int) ([]TopFlowEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	var entries []TopFlowEntry
	err := f.db.SelectContext(ctx, &entries, `
		SELECT ticker, SUM(total_premium_flow) AS total_flow, COUNT(*) AS days
		FROM daily_summary WHERE date >= ?
		GROUP BY ticker HAVING total_flow >= ?
		ORDER BY total_flow DESC LIMIT ?`,
		since, minFlow, limit)
	if err != nil {
		return nil, fmt.Errorf("top flow: %w", err)
	}
	return entries, nil
}

// Cleanup deletes events, summaries and alerts older than the
// retention window and returns rows removed.
func (f *FlowDatabase) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	var removed int64

	res, err := f.db.ExecContext(ctx, `DELETE FROM flow_events WHERE scanned_at < ?`, cutoff)
	if err != nil {
		return removed, fmt.Errorf("cleanup flow events: %w", err)
	}
	n, _ := res.RowsAffected()
	removed += n

	res, err = f.db.ExecContext(ctx, `DELETE FROM daily_summary WHERE date < ?`, cutoff.Format("2006-01-02"))
	if err != nil {
		return removed, fmt.Errorf("cleanup daily summaries: %w", err)
	}
	n, _ = res.RowsAffected()
	removed += n

	res, err = f.db.ExecContext(ctx, `DELETE FROM alerts WHERE timestamp < ?`, cutoff)
	if err != nil {
		return removed, fmt.Errorf("cleanup alerts: %w", err)
	}
	n, _ = res.RowsAffected()
	removed += n
	return removed, nil
}

// DatabaseStats counts rows per table.
func (f *FlowDatabase) DatabaseStats(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var stats Stats
	row := f.db.QueryRowxContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM flow_events),
			(SELECT COUNT(*) FROM daily_summary),
			(SELECT COUNT(*) FROM alerts)`)
	if err := row.Scan(&stats.FlowEvents, &stats.DailySummaries, &stats.Alerts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Stats{}, nil
		}
		return nil, fmt.Errorf("database stats: %w", err)
	}
	return &stats, nil
}
