// Package discovery fuses unusual-activity signals, data quality,
// technical analysis and news catalysts into one bounded discovery score
// per ticker, and scans ticker universes with a bounded worker pool.
package discovery

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flowradar/flowradar/internal/catalyst"
	"github.com/flowradar/flowradar/internal/provider"
	"github.com/flowradar/flowradar/internal/quality"
	"github.com/flowradar/flowradar/internal/signals"
	"github.com/flowradar/flowradar/internal/technical"
)

// maxCatalystBoost caps the additive news contribution to the score.
const maxCatalystBoost = 15.0

// ScorerConfig holds the qualification thresholds for universe scans.
type ScorerConfig struct {
	MinScore        float64 `yaml:"min_score"`
	SignalsRequired int     `yaml:"signals_required"`
	Workers         int     `yaml:"workers"`
}

// DefaultScorerConfig requires a score of 60 backed by two signals,
// scanning with 10 concurrent workers.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		MinScore:        60,
		SignalsRequired: 2,
		Workers:         10,
	}
}

// Result is one qualified discovery candidate ("hidden gem").
type Result struct {
	Ticker    string    `json:"ticker"`
	Timestamp time.Time `json:"timestamp"`

	DiscoveryScore  float64                 `json:"discovery_score"`
	ConfidenceScore float64                 `json:"confidence_score"`
	ConfidenceLevel quality.ConfidenceLevel `json:"confidence_level"`

	Signals   []signals.Signal    `json:"signals"`
	Catalyst  catalyst.Result     `json:"catalyst"`
	Technical *technical.Analysis `json:"technical,omitempty"`
	Quote     *provider.Quote     `json:"quote,omitempty"`

	SizeBonus     float64  `json:"size_bonus"`
	CoverageBonus float64  `json:"coverage_bonus"`
	CatalystBoost float64  `json:"catalyst_boost"`
	Reasons       []string `json:"reasons"`
}

// Scorer orchestrates the per-ticker scoring pipeline.
type Scorer struct {
	provider  provider.Provider
	detector  *signals.Detector
	validator *quality.Validator
	analyzer  *technical.Analyzer
	cfg       ScorerConfig
	logger    zerolog.Logger
}

// NewScorer wires the scoring pipeline over one provider.
func NewScorer(p provider.Provider, detector *signals.Detector, validator *quality.Validator,
	analyzer *technical.Analyzer, cfg ScorerConfig) *Scorer {
	return &Scorer{
		provider:  p,
		detector:  detector,
		validator: validator,
		analyzer:  analyzer,
		cfg:       cfg,
		logger:    log.With().Str("component", "discovery_scorer").Logger(),
	}
}

// ScoreTicker scores one ticker. It returns (nil, nil) when the ticker
// does not qualify and an error only when no quote exists at all: a
// ticker that cannot be scored simply does not appear in results.
func (s *Scorer) ScoreTicker(ctx context.Context, ticker string) (*Result, error) {
	quote, err := s.provider.Quote(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("quote for %s: %w", ticker, err)
	}

	detected := s.detector.Detect(ctx, ticker)
	if len(detected) < s.cfg.SignalsRequired {
		return nil, nil
	}

	news, _ := s.provider.News(ctx, ticker)
	cat := catalyst.ScoreNews(ticker, news, time.Now())

	score := meanSignalScore(detected)
	sizeBonus := sizeBonus(quote.MarketCap)
	coverageBonus := coverageBonus(quote.AnalystCount)
	catalystBoost := math.Min(cat.Score*0.15, maxCatalystBoost)

	discoveryScore := clamp(score+sizeBonus+coverageBonus+catalystBoost, 0, 100)
	if discoveryScore < s.cfg.MinScore {
		return nil, nil
	}

	result := &Result{
		Ticker:         ticker,
		Timestamp:      time.Now(),
		DiscoveryScore: discoveryScore,
		Signals:        detected,
		Catalyst:       cat,
		Quote:          quote,
		SizeBonus:      sizeBonus,
		CoverageBonus:  coverageBonus,
		CatalystBoost:  catalystBoost,
	}

	// Quality and technicals enrich confidence but never disqualify.
	insider := s.validator.AnalyzeInsiders(ctx, ticker)
	agg, aggErr := s.validator.AggregatePutCall(ctx, ticker)

	confidenceInput := quality.ConfidenceInput{
		SignalCount:   len(detected),
		DataQuality:   quality.QualityLow,
		CatalystScore: cat.Score,
		Insider:       insider,
	}
	// A stale snapshot keeps the low-quality default rather than
	// lending confidence it no longer deserves.
	if aggErr == nil && s.validator.IsFresh(agg.Timestamp) {
		confidenceInput.DataQuality = agg.DataQuality
		confidenceInput.TotalOpenInterest = agg.CallOI + agg.PutOI
	}

	if analysis, err := s.analyzer.Analyze(ctx, ticker); err == nil {
		result.Technical = analysis
	}

	confidence := quality.Confidence(confidenceInput)
	result.ConfidenceScore = confidence.Score
	result.ConfidenceLevel = confidence.Level
	result.Reasons = buildReasons(result)

	return result, nil
}

func meanSignalScore(detected []signals.Signal) float64 {
	if len(detected) == 0 {
		return 0
	}
	sum := 0.0
	for _, sig := range detected {
		sum += sig.Score
	}
	return sum / float64(len(detected))
}

// sizeBonus favors smaller caps, where discovery alpha lives.
func sizeBonus(marketCap float64) float64 {
	switch {
	case marketCap <= 0:
		return 0
	case marketCap < 2e9:
		return 15
	case marketCap < 10e9:
		return 10
	case marketCap < 50e9:
		return 5
	default:
		return 0
	}
}

// coverageBonus favors thin analyst coverage.
func coverageBonus(analysts int) float64 {
	switch {
	case analysts < 5:
		return 15
	case analysts < 10:
		return 10
	case analysts < 20:
		return 5
	default:
		return 0
	}
}

// buildReasons assembles the ranked explanation lines, strongest first.
func buildReasons(r *Result) []string {
	type reason struct {
		weight float64
		text   string
	}
	var reasons []reason

	ordered := append([]signals.Signal(nil), r.Signals...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Score > ordered[j].Score })
	for _, sig := range ordered {
		reasons = append(reasons, reason{
			weight: sig.Score,
			text:   fmt.Sprintf("%s signal (%s, score %.0f)", sig.Kind, sig.Severity, sig.Score),
		})
	}

	if r.SizeBonus > 0 {
		reasons = append(reasons, reason{
			weight: r.SizeBonus * 2,
			text:   fmt.Sprintf("Small/mid cap ($%.1fB) under-the-radar bonus", r.Quote.MarketCap/1e9),
		})
	}
	if r.CoverageBonus > 0 {
		reasons = append(reasons, reason{
			weight: r.CoverageBonus * 2,
			text:   fmt.Sprintf("Thin analyst coverage (%d analysts)", r.Quote.AnalystCount),
		})
	}
	if r.CatalystBoost > 0 {
		reasons = append(reasons, reason{
			weight: r.CatalystBoost * 3,
			text:   fmt.Sprintf("News catalyst (%s, +%.1f)", r.Catalyst.Sentiment, r.CatalystBoost),
		})
	}
	if r.Technical != nil && r.Technical.Complete {
		reasons = append(reasons, reason{
			weight: r.Technical.CompositeScore / 2,
			text:   fmt.Sprintf("Technical %s (score %.0f)", r.Technical.Signal, r.Technical.CompositeScore),
		})
	}

	sort.SliceStable(reasons, func(i, j int) bool { return reasons[i].weight > reasons[j].weight })

	out := make([]string, len(reasons))
	for i, rr := range reasons {
		out[i] = rr.text
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
