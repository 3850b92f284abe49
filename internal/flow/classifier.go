// Package flow classifies option trade ticks into institutional-activity
// events and scans tickers for aggregate premium flow.
package flow

import (
	"sort"
	"time"

	"github.com/flowradar/flowradar/internal/provider"
)

// EventKind tags one classification outcome on a contract's tick batch.
type EventKind string

const (
	KindBlock      EventKind = "BLOCK"
	KindSweep      EventKind = "SWEEP"
	KindAggressive EventKind = "AGGRESSIVE"
)

// ClassifierConfig holds the tick classification thresholds.
type ClassifierConfig struct {
	BlockThreshold      int64         `yaml:"block_threshold"`
	SweepWindow         time.Duration `yaml:"sweep_window"`
	AggressiveThreshold float64       `yaml:"aggressive_threshold"`
}

// DefaultClassifierConfig returns the calibrated thresholds: 100-contract
// blocks, 2-second sweep windows, 0.65 aggressive ratio.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		BlockThreshold:      100,
		SweepWindow:         2 * time.Second,
		AggressiveThreshold: 0.65,
	}
}

// Event is the classification result for one contract in one scan.
// Events are immutable once created and appended to the flow database.
type Event struct {
	Ticker     string         `json:"ticker" db:"ticker"`
	Strike     float64        `json:"strike" db:"strike"`
	Right      provider.Right `json:"right" db:"right"`
	Expiration time.Time      `json:"expiration" db:"expiration"`

	BlockTrade bool `json:"block_trade" db:"block_trade"`
	IsSweep    bool `json:"is_sweep" db:"is_sweep"`
	Aggressive bool `json:"aggressive" db:"aggressive"`

	TotalVolume     int64   `json:"total_volume" db:"total_volume"`
	LargestTrade    int64   `json:"largest_trade" db:"largest_trade"`
	AvgTradeSize    float64 `json:"avg_trade_size" db:"avg_trade_size"`
	PremiumFlow     float64 `json:"premium_flow" db:"premium_flow"`
	AggressiveRatio float64 `json:"aggressive_ratio" db:"aggressive_ratio"`
	SweepExchanges  int     `json:"sweep_exchanges" db:"sweep_exchanges"`

	ScannedAt time.Time `json:"scanned_at" db:"scanned_at"`
}

// Kinds lists the event kinds flagged on this event.
func (e *Event) Kinds() []EventKind {
	var kinds []EventKind
	if e.BlockTrade {
		kinds = append(kinds, KindBlock)
	}
	if e.IsSweep {
		kinds = append(kinds, KindSweep)
	}
	if e.Aggressive {
		kinds = append(kinds, KindAggressive)
	}
	return kinds
}

// Unusual reports whether any classification fired.
func (e *Event) Unusual() bool {
	return e.BlockTrade || e.IsSweep || e.Aggressive
}

// Classify converts one contract's tick batch into flow metrics and
// classification flags. An empty batch returns a zero event.
func Classify(contract provider.Contract, ticks []provider.Tick, cfg ClassifierConfig) Event {
	event := Event{
		Ticker:     contract.Ticker,
		Strike:     contract.Strike,
		Right:      contract.Right,
		Expiration: contract.Expiration,
		ScannedAt:  time.Now(),
	}
	if len(ticks) == 0 {
		return event
	}

	var totalVolume, largest int64
	var priceSum float64
	for _, tick := range ticks {
		totalVolume += tick.Size
		if tick.Size > largest {
			largest = tick.Size
		}
		priceSum += tick.Price
	}

	event.TotalVolume = totalVolume
	event.LargestTrade = largest
	event.AvgTradeSize = float64(totalVolume) / float64(len(ticks))
	// Contract multiplier of 100 shares per contract.
	event.PremiumFlow = (priceSum / float64(len(ticks))) * float64(totalVolume) * 100.0

	event.BlockTrade = largest >= cfg.BlockThreshold
	event.IsSweep, event.SweepExchanges = detectSweep(ticks, cfg.SweepWindow)
	event.AggressiveRatio = aggressiveRatio(ticks)
	event.Aggressive = event.AggressiveRatio >= cfg.AggressiveThreshold

	return event
}

// detectSweep buckets ticks into fixed windows and flags a sweep when any
// bucket spans more than one exchange. The reported exchange count is the
// widest bucket's.
func detectSweep(ticks []provider.Tick, window time.Duration) (bool, int) {
	if window <= 0 || len(ticks) == 0 {
		return false, 0
	}

	buckets := make(map[int64]map[string]struct{})
	for _, tick := range ticks {
		bucket := tick.Time.UnixNano() / int64(window)
		if buckets[bucket] == nil {
			buckets[bucket] = make(map[string]struct{})
		}
		buckets[bucket][tick.Exchange] = struct{}{}
	}

	maxExchanges := 0
	for _, exchanges := range buckets {
		if len(exchanges) > maxExchanges {
			maxExchanges = len(exchanges)
		}
	}
	return maxExchanges > 1, maxExchanges
}

// aggressiveRatio sums volume on upticks (price strictly above the
// previous print) over total volume. The aggressor side is inferred from
// upticks only; no NBBO comparison is attempted.
func aggressiveRatio(ticks []provider.Tick) float64 {
	ordered := append([]provider.Tick(nil), ticks...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Time.Before(ordered[j].Time) })

	var upVolume, totalVolume int64
	for i, tick := range ordered {
		totalVolume += tick.Size
		if i > 0 && tick.Price > ordered[i-1].Price {
			upVolume += tick.Size
		}
	}
	if totalVolume == 0 {
		return 0
	}
	return float64(upVolume) / float64(totalVolume)
}
