package flow

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flowradar/flowradar/internal/provider"
)

// ScannerConfig controls the contract sweep performed per ticker.
type ScannerConfig struct {
	Classifier    ClassifierConfig `yaml:"classifier"`
	StrikeBandPct float64          `yaml:"strike_band_pct"`
}

// DefaultScannerConfig scans strikes within 15% of spot.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		Classifier:    DefaultClassifierConfig(),
		StrikeBandPct: 0.15,
	}
}

// TickerStats aggregates one scan's flow across all contracts.
type TickerStats struct {
	Ticker           string  `json:"ticker"`
	TotalPremiumFlow float64 `json:"total_premium_flow"`
	PutFlow          float64 `json:"put_flow"`
	CallFlow         float64 `json:"call_flow"`
	PutCallFlowRatio float64 `json:"put_call_flow_ratio"`
	BlockCount       int     `json:"block_count"`
	SweepCount       int     `json:"sweep_count"`
	AggressiveCount  int     `json:"aggressive_count"`
	PutBlockPremium  float64 `json:"put_block_premium"`
	PutSweepCount    int     `json:"put_sweep_count"`
	ContractsScanned int     `json:"contracts_scanned"`
	ContractsSkipped int     `json:"contracts_skipped"`
}

// ScanResult is the full output of one ticker scan.
type ScanResult struct {
	Events []Event     `json:"events"`
	Alerts []RuleMatch `json:"alerts"`
	Stats  TickerStats `json:"stats"`
}

// Scanner walks strikes x expirations x rights for a ticker, classifies
// each contract's recent ticks and evaluates the alert rule table.
type Scanner struct {
	provider provider.Provider
	cfg      ScannerConfig
	logger   zerolog.Logger
}

// NewScanner creates a scanner over the given provider.
func NewScanner(p provider.Provider, cfg ScannerConfig) *Scanner {
	return &Scanner{
		provider: p,
		cfg:      cfg,
		logger:   log.With().Str("component", "flow_scanner").Logger(),
	}
}

// Scan classifies flow for one ticker across the nearest maxExpirations
// expirations. Missing data for an individual contract is a soft failure:
// the contract is skipped and the scan continues. Scan only errors when
// the ticker itself has no quote or no expirations.
func (s *Scanner) Scan(ctx context.Context, ticker string, maxExpirations, lookbackTrades int) (*ScanResult, error) {
	quote, err := s.provider.Quote(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("quote for %s: %w", ticker, err)
	}

	expirations, err := s.provider.Expirations(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("expirations for %s: %w", ticker, err)
	}
	if len(expirations) > maxExpirations {
		expirations = expirations[:maxExpirations]
	}

	result := &ScanResult{Stats: TickerStats{Ticker: ticker}}

	for _, expiration := range expirations {
		chain, err := s.provider.OptionChain(ctx, ticker, expiration)
		if err != nil {
			s.logger.Debug().Err(err).Str("ticker", ticker).
				Time("expiration", expiration).Msg("Chain unavailable, skipping expiration")
			continue
		}

		s.scanSide(ctx, chain.Calls, provider.RightCall, quote.Price, ticker, expiration, lookbackTrades, result)
		s.scanSide(ctx, chain.Puts, provider.RightPut, quote.Price, ticker, expiration, lookbackTrades, result)
	}

	finalizeStats(&result.Stats)
	result.Alerts = EvaluateRules(result.Stats)

	s.logger.Info().Str("ticker", ticker).
		Int("events", len(result.Events)).
		Int("contracts", result.Stats.ContractsScanned).
		Float64("premium_flow", result.Stats.TotalPremiumFlow).
		Msg("Flow scan complete")

	return result, nil
}

func (s *Scanner) scanSide(ctx context.Context, quotes []provider.OptionQuote, right provider.Right,
	spot float64, ticker string, expiration time.Time, lookback int, result *ScanResult) {

	for _, oq := range quotes {
		if !s.withinBand(oq.Strike, spot) {
			continue
		}

		contract := provider.Contract{Ticker: ticker, Strike: oq.Strike, Right: right, Expiration: expiration}
		ticks, err := s.provider.HistoricalTicks(ctx, contract, lookback)
		if err != nil || len(ticks) == 0 {
			result.Stats.ContractsSkipped++
			continue
		}

		event := Classify(contract, ticks, s.cfg.Classifier)
		result.Stats.ContractsScanned++
		accumulate(&result.Stats, event)

		if event.Unusual() {
			result.Events = append(result.Events, event)
		}
	}
}

func (s *Scanner) withinBand(strike, spot float64) bool {
	if spot <= 0 {
		return true
	}
	return math.Abs(strike-spot)/spot <= s.cfg.StrikeBandPct
}

func accumulate(stats *TickerStats, event Event) {
	stats.TotalPremiumFlow += event.PremiumFlow
	if event.Right == provider.RightPut {
		stats.PutFlow += event.PremiumFlow
	} else {
		stats.CallFlow += event.PremiumFlow
	}

	if event.BlockTrade {
		stats.BlockCount++
		if event.Right == provider.RightPut {
			stats.PutBlockPremium += event.PremiumFlow
		}
	}
	if event.IsSweep {
		stats.SweepCount++
		if event.Right == provider.RightPut {
			stats.PutSweepCount++
		}
	}
	if event.Aggressive {
		stats.AggressiveCount++
	}
}

func finalizeStats(stats *TickerStats) {
	if stats.CallFlow > 0 {
		stats.PutCallFlowRatio = stats.PutFlow / stats.CallFlow
	}
}
