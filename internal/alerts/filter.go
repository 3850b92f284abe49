package alerts

import (
	"sync"
	"time"
)

// FilterConfig controls pre-dispatch alert suppression.
type FilterConfig struct {
	MinSeverity Severity      `yaml:"min_severity"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

// DefaultFilterConfig suppresses repeats of the same alert type for a
// ticker within one hour.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinSeverity: SeverityLow,
		Cooldown:    60 * time.Minute,
	}
}

type lastAlert struct {
	time      time.Time
	alertType string
}

// Filter deduplicates alerts per (ticker, type) with a cooldown window.
// The check-and-update is done under one lock so two near-simultaneous
// alerts for the same ticker cannot both pass.
type Filter struct {
	mu     sync.Mutex
	cfg    FilterConfig
	recent map[string]lastAlert // keyed by ticker|type
	now    func() time.Time
}

// NewFilter creates a filter with the given config.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{
		cfg:    cfg,
		recent: make(map[string]lastAlert),
		now:    time.Now,
	}
}

// ShouldAlert reports whether the alert passes the severity gate and the
// cooldown window, recording it as the latest occurrence when it does.
func (f *Filter) ShouldAlert(alert Alert) bool {
	if alert.Severity.Rank() < f.cfg.MinSeverity.Rank() {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := alert.Ticker + "|" + alert.Type
	now := f.now()
	if last, ok := f.recent[key]; ok {
		if now.Sub(last.time) < f.cfg.Cooldown {
			return false
		}
	}

	f.recent[key] = lastAlert{time: now, alertType: alert.Type}
	return true
}

// Reset clears all cooldown state.
func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recent = make(map[string]lastAlert)
}
