package signals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowradar/flowradar/internal/alerts"
	"github.com/flowradar/flowradar/internal/provider"
)

func chainFixture(ticker string, expiration time.Time, callVol, callOI, putVol, putOI int64, iv float64) *provider.OptionChain {
	return &provider.OptionChain{
		Ticker:     ticker,
		Expiration: expiration,
		Calls: []provider.OptionQuote{
			{Strike: 100, Volume: callVol, OpenInterest: callOI, ImpliedVolatility: iv},
		},
		Puts: []provider.OptionQuote{
			{Strike: 100, Volume: putVol, OpenInterest: putOI, ImpliedVolatility: iv},
		},
	}
}

func TestDetector_Detect_NoQuote_ReturnsEmpty(t *testing.T) {
	detector := NewDetector(provider.NewStubProvider(), DefaultDetectorConfig())

	assert.Empty(t, detector.Detect(context.Background(), "ZZZZ"))
}

func TestDetector_UnusualVolume_FiresAboveRatio(t *testing.T) {
	stub := provider.NewStubProvider()
	exp := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	stub.SetQuote(&provider.Quote{Ticker: "HOT", Price: 100, Timestamp: time.Now()})
	// 6000 volume over 3000 OI = 2.0 ratio, HIGH bucket, score 60.
	stub.SetChain(chainFixture("HOT", exp, 4000, 2000, 2000, 1000, 0.2))

	detected := NewDetector(stub, DefaultDetectorConfig()).Detect(context.Background(), "HOT")

	var sig *Signal
	for i := range detected {
		if detected[i].Kind == KindUnusualVolume {
			sig = &detected[i]
		}
	}
	require.NotNil(t, sig)
	assert.Equal(t, alerts.SeverityHigh, sig.Severity)
	assert.InDelta(t, 60.0, sig.Score, 1e-9)

	details, ok := sig.Details.(UnusualVolumeDetails)
	require.True(t, ok)
	assert.InDelta(t, 2.0, details.VolumeOIRatio, 1e-9)
}

func TestDetector_UnusualVolume_ZeroOpenInterestGuarded(t *testing.T) {
	stub := provider.NewStubProvider()
	exp := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	stub.SetQuote(&provider.Quote{Ticker: "THIN", Price: 100, Timestamp: time.Now()})
	stub.SetChain(chainFixture("THIN", exp, 500, 0, 500, 0, 0.2))

	detected := NewDetector(stub, DefaultDetectorConfig()).Detect(context.Background(), "THIN")

	for _, sig := range detected {
		assert.NotEqual(t, KindUnusualVolume, sig.Kind, "zero OI must not divide")
	}
}

func TestDetector_IVSurge_AveragesATMAcrossExpirations(t *testing.T) {
	stub := provider.NewStubProvider()
	exp1 := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	exp2 := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	stub.SetQuote(&provider.Quote{Ticker: "VOL", Price: 100, Timestamp: time.Now()})
	stub.SetChain(chainFixture("VOL", exp1, 10, 100_000, 10, 100_000, 0.8))
	stub.SetChain(chainFixture("VOL", exp2, 10, 100_000, 10, 100_000, 1.0))

	detected := NewDetector(stub, DefaultDetectorConfig()).Detect(context.Background(), "VOL")

	var sig *Signal
	for i := range detected {
		if detected[i].Kind == KindIVSurge {
			sig = &detected[i]
		}
	}
	require.NotNil(t, sig)
	// avg IV 0.9, score min(100, 54) = 54 -> MEDIUM
	assert.InDelta(t, 54.0, sig.Score, 1e-9)
	assert.Equal(t, alerts.SeverityMedium, sig.Severity)
}

func TestDetector_PCExtreme_ZeroVolumeSideGuarded(t *testing.T) {
	stub := provider.NewStubProvider()
	exp := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	stub.SetQuote(&provider.Quote{Ticker: "ONE", Price: 100, Timestamp: time.Now()})
	stub.SetChain(chainFixture("ONE", exp, 5000, 100_000, 0, 100_000, 0.2))

	detected := NewDetector(stub, DefaultDetectorConfig()).Detect(context.Background(), "ONE")

	for _, sig := range detected {
		assert.NotEqual(t, KindPCRatioExtreme, sig.Kind, "one-sided volume must not produce a ratio")
	}
}

func TestDetector_PCExtreme_PutSkewFires(t *testing.T) {
	stub := provider.NewStubProvider()
	exp := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	stub.SetQuote(&provider.Quote{Ticker: "BEAR", Price: 100, Timestamp: time.Now()})
	// P/C ratio 5.0, above the 3.0 extreme.
	stub.SetChain(chainFixture("BEAR", exp, 1000, 1_000_000, 5000, 1_000_000, 0.2))

	detected := NewDetector(stub, DefaultDetectorConfig()).Detect(context.Background(), "BEAR")

	var sig *Signal
	for i := range detected {
		if detected[i].Kind == KindPCRatioExtreme {
			sig = &detected[i]
		}
	}
	require.NotNil(t, sig)
	details, ok := sig.Details.(PCRatioDetails)
	require.True(t, ok)
	assert.InDelta(t, 5.0, details.Ratio, 1e-9)
}

func TestSeverityForScore_Buckets(t *testing.T) {
	assert.Equal(t, alerts.SeverityCritical, severityForScore(95))
	assert.Equal(t, alerts.SeverityHigh, severityForScore(70))
	assert.Equal(t, alerts.SeverityMedium, severityForScore(50))
	assert.Equal(t, alerts.SeverityLow, severityForScore(49.9))
}
