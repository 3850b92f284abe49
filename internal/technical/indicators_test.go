package technical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowradar/flowradar/internal/provider"
)

func risingCloses(n int) []float64 {
	closes := make([]float64, n)
	price := 100.0
	for i := range closes {
		price += 1.0
		closes[i] = price
	}
	return closes
}

func fallingCloses(n int) []float64 {
	closes := make([]float64, n)
	price := 200.0
	for i := range closes {
		price -= 1.0
		closes[i] = price
	}
	return closes
}

func barsFromCloses(closes []float64, start time.Time) []provider.PriceBar {
	bars := make([]provider.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = provider.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c * 0.995,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func TestCalculateRSI_MonotonicRise_TopBucket(t *testing.T) {
	rsi := CalculateRSI(risingCloses(60), 14)

	require.True(t, rsi.IsValid)
	assert.Equal(t, 100.0, rsi.Value, "no down days means RSI 100")
	assert.Equal(t, ZoneExtremelyOverbought, rsi.Zone)
}

func TestCalculateRSI_MonotonicFall_BottomBucket(t *testing.T) {
	rsi := CalculateRSI(fallingCloses(60), 14)

	require.True(t, rsi.IsValid)
	assert.Equal(t, 0.0, rsi.Value)
	assert.Equal(t, ZoneExtremelyOversold, rsi.Zone)
}

func TestCalculateRSI_InsufficientData_NeutralDefault(t *testing.T) {
	rsi := CalculateRSI(risingCloses(10), 14)

	assert.False(t, rsi.IsValid)
	assert.Equal(t, 50.0, rsi.Value, "short series defaults to neutral 50")
}

func TestRSIZone_Boundaries(t *testing.T) {
	assert.Equal(t, ZoneExtremelyOversold, rsiZone(19.9))
	assert.Equal(t, ZoneOversold, rsiZone(20))
	assert.Equal(t, ZoneNeutralBearish, rsiZone(30))
	assert.Equal(t, ZoneNeutralBullish, rsiZone(50))
	assert.Equal(t, ZoneOverbought, rsiZone(70))
	assert.Equal(t, ZoneExtremelyOverbought, rsiZone(80))
}

func TestCalculateMACD_RisingSeries_PositiveHistogram(t *testing.T) {
	macd := CalculateMACD(risingCloses(120), 12, 26, 9)

	require.True(t, macd.IsValid)
	assert.Greater(t, macd.MACD, 0.0, "steady uptrend keeps MACD above signal zero line")
}

func TestCalculateMovingAverages_StackedUptrend(t *testing.T) {
	mas := CalculateMovingAverages(risingCloses(250))

	require.True(t, mas.IsValid)
	assert.False(t, mas.HasSMA200, "needs 201 closes for the 200-day cross check")
	assert.Greater(t, mas.SMA20, mas.SMA50, "recent average leads in an uptrend")

	longer := CalculateMovingAverages(risingCloses(260))
	assert.True(t, longer.HasSMA200)
	assert.Greater(t, longer.SMA50, longer.SMA200)
}

func TestCalculateBollinger_PositionBounded(t *testing.T) {
	bb := CalculateBollinger(risingCloses(60), 20, 2)

	require.True(t, bb.IsValid)
	assert.GreaterOrEqual(t, bb.Position, 0.0)
	assert.LessOrEqual(t, bb.Position, 1.0)
	assert.Greater(t, bb.Upper, bb.Middle)
	assert.Greater(t, bb.Middle, bb.Lower)
}

func TestCalculateOBV_RisingTape_RisingTrend(t *testing.T) {
	bars := barsFromCloses(risingCloses(60), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	obv := CalculateOBV(bars)

	require.True(t, obv.IsValid)
	assert.Equal(t, "RISING", obv.Trend)
}

func TestCalculateVWAP_AboveInUptrend(t *testing.T) {
	bars := barsFromCloses(risingCloses(60), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	vwap := CalculateVWAP(bars)

	require.True(t, vwap.IsValid)
	assert.Greater(t, vwap.DistancePct, 0.0, "last close sits above the trailing VWAP in an uptrend")
}

func TestCalculatePivots_Ordering(t *testing.T) {
	bars := barsFromCloses(risingCloses(60), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	pivots := CalculatePivots(bars)

	require.True(t, pivots.IsValid)
	assert.Greater(t, pivots.R2, pivots.R1)
	assert.Greater(t, pivots.R1, pivots.Pivot)
	assert.Greater(t, pivots.Pivot, pivots.S1)
	assert.Greater(t, pivots.S1, pivots.S2)
}

func TestCalculateADX_TrendingSeries_Valid(t *testing.T) {
	bars := barsFromCloses(risingCloses(120), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	adx := CalculateADX(bars, 14)

	require.True(t, adx.IsValid)
	assert.Greater(t, adx.ADX, 20.0, "a persistent one-way move is a real trend")
	assert.Greater(t, adx.PlusDI, adx.MinusDI)
}

func TestCalculateRelativeStrength_Outperformance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	strong := barsFromCloses(risingCloses(120), start)
	flat := make([]float64, 120)
	for i := range flat {
		flat[i] = 100 + 0.05*float64(i)
	}
	bench := barsFromCloses(flat, start)

	rs := CalculateRelativeStrength(strong, bench)

	require.True(t, rs.IsValid)
	assert.Contains(t, []string{RSOutperforming, RSAccelerating}, rs.Trend)
}

func TestCalculateRelativeStrength_TooFewBars_Invalid(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rs := CalculateRelativeStrength(
		barsFromCloses(risingCloses(30), start),
		barsFromCloses(risingCloses(30), start),
	)

	assert.False(t, rs.IsValid)
}
