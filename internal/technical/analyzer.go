package technical

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flowradar/flowradar/internal/provider"
)

// minBars is the history floor below which only a partial analysis is
// produced. Analysis never errors on short history; unavailable fields
// simply keep their zero values with IsValid unset.
const minBars = 50

// Analysis aggregates every indicator plus the composite score.
type Analysis struct {
	Ticker    string    `json:"ticker"`
	BarCount  int       `json:"bar_count"`
	Timestamp time.Time `json:"timestamp"`

	RSI              RSIResult              `json:"rsi"`
	MACD             MACDResult             `json:"macd"`
	ADX              ADXResult              `json:"adx"`
	MovingAverages   MovingAverages         `json:"moving_averages"`
	Bollinger        BollingerResult        `json:"bollinger"`
	OBV              OBVResult              `json:"obv"`
	VWAP             VWAPResult             `json:"vwap"`
	Pivots           PivotPoints            `json:"pivots"`
	RelativeStrength RelativeStrengthResult `json:"relative_strength"`

	MomentumScore   float64 `json:"momentum_score"`
	TrendScore      float64 `json:"trend_score"`
	VolatilityScore float64 `json:"volatility_score"`
	VolumeScore     float64 `json:"volume_score"`
	CompositeScore  float64 `json:"composite_score"`

	Signal     string `json:"signal"`
	Confidence string `json:"confidence"`
	Complete   bool   `json:"complete"`
}

// AnalyzerConfig controls history depth and the benchmark index.
type AnalyzerConfig struct {
	HistoryPeriod   time.Duration `yaml:"history_period"`
	BenchmarkTicker string        `yaml:"benchmark_ticker"`
}

// DefaultAnalyzerConfig pulls one year of history benchmarked to SPY.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		HistoryPeriod:   365 * 24 * time.Hour,
		BenchmarkTicker: "SPY",
	}
}

// Analyzer computes technical analyses from provider price history.
type Analyzer struct {
	provider provider.Provider
	cfg      AnalyzerConfig
	logger   zerolog.Logger
}

// NewAnalyzer creates an analyzer over the given provider.
func NewAnalyzer(p provider.Provider, cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{
		provider: p,
		cfg:      cfg,
		logger:   log.With().Str("component", "technical_analyzer").Logger(),
	}
}

// Analyze fetches price history for the ticker and the benchmark and
// computes the full analysis. A missing benchmark only drops relative
// strength; missing ticker history returns the error for the caller to
// soft-skip.
func (a *Analyzer) Analyze(ctx context.Context, ticker string) (*Analysis, error) {
	bars, err := a.provider.PriceHistory(ctx, ticker, a.cfg.HistoryPeriod)
	if err != nil {
		return nil, err
	}

	var benchmark []provider.PriceBar
	if a.cfg.BenchmarkTicker != "" && a.cfg.BenchmarkTicker != ticker {
		benchmark, err = a.provider.PriceHistory(ctx, a.cfg.BenchmarkTicker, a.cfg.HistoryPeriod)
		if err != nil {
			a.logger.Debug().Err(err).Str("benchmark", a.cfg.BenchmarkTicker).
				Msg("Benchmark history unavailable, skipping relative strength")
			benchmark = nil
		}
	}

	analysis := AnalyzeBars(ticker, bars, benchmark)
	return analysis, nil
}

// AnalyzeBars computes the analysis from already-fetched history. With
// fewer than 50 bars a partial analysis is returned: indicators keep
// their zero values, Complete stays false and no entry signal is set.
func AnalyzeBars(ticker string, bars, benchmark []provider.PriceBar) *Analysis {
	analysis := &Analysis{
		Ticker:    ticker,
		BarCount:  len(bars),
		Timestamp: time.Now(),
	}

	if len(bars) < minBars {
		return analysis
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	analysis.RSI = CalculateRSI(closes, 14)
	analysis.MACD = CalculateMACD(closes, 12, 26, 9)
	analysis.ADX = CalculateADX(bars, 14)
	analysis.MovingAverages = CalculateMovingAverages(closes)
	analysis.Bollinger = CalculateBollinger(closes, 20, 2.0)
	analysis.OBV = CalculateOBV(bars)
	analysis.VWAP = CalculateVWAP(bars)
	analysis.Pivots = CalculatePivots(bars)
	if benchmark != nil {
		analysis.RelativeStrength = CalculateRelativeStrength(bars, benchmark)
	}

	lastClose := closes[len(closes)-1]
	analysis.MomentumScore = momentumScore(analysis)
	analysis.TrendScore = trendScore(analysis, lastClose)
	analysis.VolatilityScore = volatilityScore(analysis)
	analysis.VolumeScore = volumeScore(analysis)

	analysis.CompositeScore = clampFloat(
		analysis.MomentumScore*0.30+
			analysis.TrendScore*0.25+
			analysis.VolatilityScore*0.20+
			analysis.VolumeScore*0.25,
		0, 100)

	analysis.Signal, analysis.Confidence = entrySignal(analysis.CompositeScore)
	analysis.Complete = true

	return analysis
}
