package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowradar/flowradar/internal/provider"
	"github.com/flowradar/flowradar/internal/quality"
	"github.com/flowradar/flowradar/internal/signals"
	"github.com/flowradar/flowradar/internal/technical"
)

// seedGem installs a fixture that trips the unusual-volume and IV-surge
// detectors: 9000 contracts traded against 5000 open interest with ATM
// implied vol at 0.9.
func seedGem(stub *provider.StubProvider, ticker string, marketCap float64, analysts int) {
	stub.SetQuote(&provider.Quote{
		Ticker:       ticker,
		Price:        50,
		MarketCap:    marketCap,
		AnalystCount: analysts,
		Timestamp:    time.Now(),
	})
	stub.SetChain(&provider.OptionChain{
		Ticker:     ticker,
		Expiration: time.Now().AddDate(0, 0, 10),
		Calls: []provider.OptionQuote{
			{Strike: 50, Volume: 6000, OpenInterest: 3000, ImpliedVolatility: 0.9, Bid: 1.9, Ask: 2.1},
		},
		Puts: []provider.OptionQuote{
			{Strike: 50, Volume: 3000, OpenInterest: 2000, ImpliedVolatility: 0.9, Bid: 1.4, Ask: 1.6},
		},
	})
}

func newTestScorer(stub *provider.StubProvider, cfg ScorerConfig) *Scorer {
	return NewScorer(
		stub,
		signals.NewDetector(stub, signals.DefaultDetectorConfig()),
		quality.NewValidator(stub, quality.DefaultValidatorConfig()),
		technical.NewAnalyzer(stub, technical.DefaultAnalyzerConfig()),
		cfg,
	)
}

func TestScorer_ScoreTicker_QualifiesWithBonuses(t *testing.T) {
	stub := provider.NewStubProvider()
	seedGem(stub, "GEM", 1.5e9, 3)

	scorer := newTestScorer(stub, DefaultScorerConfig())
	result, err := scorer.ScoreTicker(context.Background(), "GEM")
	require.NoError(t, err)
	require.NotNil(t, result, "two signals plus bonuses should qualify")

	// Unusual volume (1.8 vol/OI) and IV surge (0.9) both score 54; the
	// mean plus small-cap and thin-coverage bonuses lands at 84.
	assert.Len(t, result.Signals, 2)
	assert.Equal(t, 15.0, result.SizeBonus)
	assert.Equal(t, 15.0, result.CoverageBonus)
	assert.InDelta(t, 84.0, result.DiscoveryScore, 0.01)
	assert.Zero(t, result.CatalystBoost, "no headlines, no boost")
	assert.NotEmpty(t, result.Reasons)
	require.NotNil(t, result.Quote)
	assert.Equal(t, "GEM", result.Quote.Ticker)
}

func TestScorer_ScoreTicker_StaleAggregateKeepsLowQuality(t *testing.T) {
	stub := provider.NewStubProvider()
	seedGem(stub, "GEM", 1.5e9, 3)

	fresh := newTestScorer(stub, DefaultScorerConfig())
	freshResult, err := fresh.ScoreTicker(context.Background(), "GEM")
	require.NoError(t, err)
	require.NotNil(t, freshResult)

	staleCfg := quality.DefaultValidatorConfig()
	staleCfg.MaxAge = -time.Second // every snapshot reads as stale
	stale := NewScorer(
		stub,
		signals.NewDetector(stub, signals.DefaultDetectorConfig()),
		quality.NewValidator(stub, staleCfg),
		technical.NewAnalyzer(stub, technical.DefaultAnalyzerConfig()),
		DefaultScorerConfig(),
	)
	staleResult, err := stale.ScoreTicker(context.Background(), "GEM")
	require.NoError(t, err)
	require.NotNil(t, staleResult)

	assert.Equal(t, freshResult.DiscoveryScore, staleResult.DiscoveryScore,
		"freshness gates confidence, not qualification")
	assert.Less(t, staleResult.ConfidenceScore, freshResult.ConfidenceScore,
		"a stale put/call snapshot lends no confidence")
}

func TestScorer_ScoreTicker_NoQuoteErrors(t *testing.T) {
	stub := provider.NewStubProvider()
	scorer := newTestScorer(stub, DefaultScorerConfig())

	result, err := scorer.ScoreTicker(context.Background(), "GHOST")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, provider.IsDataUnavailable(err))
}

func TestScorer_ScoreTicker_TooFewSignals(t *testing.T) {
	stub := provider.NewStubProvider()
	seedGem(stub, "GEM", 1.5e9, 3)

	cfg := DefaultScorerConfig()
	cfg.SignalsRequired = 3

	scorer := newTestScorer(stub, cfg)
	result, err := scorer.ScoreTicker(context.Background(), "GEM")
	require.NoError(t, err)
	assert.Nil(t, result, "two signals under a floor of three does not qualify")
}

func TestScorer_ScoreTicker_BelowMinScore(t *testing.T) {
	stub := provider.NewStubProvider()
	// A mega-cap with heavy coverage gets no bonuses: the raw signal
	// mean of 54 sits under the 60 floor.
	seedGem(stub, "BIG", 300e9, 40)

	scorer := newTestScorer(stub, DefaultScorerConfig())
	result, err := scorer.ScoreTicker(context.Background(), "BIG")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestScorer_ScoreTicker_CatalystBoostCapped(t *testing.T) {
	stub := provider.NewStubProvider()
	seedGem(stub, "GEM", 1.5e9, 3)
	stub.SetNews("GEM", []provider.NewsItem{
		{Title: "Goldman says GEM beats estimates", PubDate: time.Now().Add(-time.Hour)},
		{Title: "GEM raised guidance", PubDate: time.Now().Add(-2 * time.Hour)},
		{Title: "GEM upgraded at Morgan Stanley", PubDate: time.Now().Add(-3 * time.Hour)},
	})

	scorer := newTestScorer(stub, DefaultScorerConfig())
	result, err := scorer.ScoreTicker(context.Background(), "GEM")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 15.0, result.CatalystBoost, "news contribution caps at 15 points")
	assert.InDelta(t, 99.0, result.DiscoveryScore, 0.01)
}

func TestSizeBonus_Tiers(t *testing.T) {
	assert.Equal(t, 0.0, sizeBonus(0), "unknown cap earns nothing")
	assert.Equal(t, 15.0, sizeBonus(1.9e9))
	assert.Equal(t, 10.0, sizeBonus(5e9))
	assert.Equal(t, 5.0, sizeBonus(30e9))
	assert.Equal(t, 0.0, sizeBonus(60e9))
}

func TestCoverageBonus_Tiers(t *testing.T) {
	assert.Equal(t, 15.0, coverageBonus(4))
	assert.Equal(t, 10.0, coverageBonus(9))
	assert.Equal(t, 5.0, coverageBonus(19))
	assert.Equal(t, 0.0, coverageBonus(20))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 100.0, clamp(140, 0, 100))
	assert.Equal(t, 0.0, clamp(-5, 0, 100))
	assert.Equal(t, 42.5, clamp(42.5, 0, 100))
}
