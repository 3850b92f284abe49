// Package technical computes momentum, trend, volatility and volume
// indicators from daily price history and fuses them into a composite
// technical score with an entry signal.
package technical

import (
	"math"
	"sort"

	"github.com/flowradar/flowradar/internal/provider"
)

// RSIResult is the Wilder-smoothed relative strength index.
type RSIResult struct {
	Value   float64 `json:"value"`
	Zone    string  `json:"zone"`
	Period  int     `json:"period"`
	IsValid bool    `json:"is_valid"`
}

// RSI zones, from deeply oversold to deeply overbought.
const (
	ZoneExtremelyOversold   = "EXTREMELY_OVERSOLD"
	ZoneOversold            = "OVERSOLD"
	ZoneNeutralBearish      = "NEUTRAL_BEARISH"
	ZoneNeutralBullish      = "NEUTRAL_BULLISH"
	ZoneOverbought          = "OVERBOUGHT"
	ZoneExtremelyOverbought = "EXTREMELY_OVERBOUGHT"
)

// CalculateRSI computes RSI over closes using Wilder's rolling mean of
// gains and losses.
func CalculateRSI(closes []float64, period int) RSIResult {
	if len(closes) < period+1 {
		return RSIResult{Value: 50.0, Period: period}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	alpha := 1.0 / float64(period)
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = avgGain*(1-alpha) + gain*alpha
		avgLoss = avgLoss*(1-alpha) + loss*alpha
	}

	rsi := 100.0
	if avgLoss > 0 {
		rs := avgGain / avgLoss
		rsi = 100.0 - (100.0 / (1.0 + rs))
	}

	return RSIResult{Value: rsi, Zone: rsiZone(rsi), Period: period, IsValid: true}
}

func rsiZone(rsi float64) string {
	switch {
	case rsi < 20:
		return ZoneExtremelyOversold
	case rsi < 30:
		return ZoneOversold
	case rsi < 50:
		return ZoneNeutralBearish
	case rsi < 70:
		return ZoneNeutralBullish
	case rsi < 80:
		return ZoneOverbought
	default:
		return ZoneExtremelyOverbought
	}
}

// MACDResult is MACD(12,26,9) with histogram crossover detection.
type MACDResult struct {
	MACD             float64 `json:"macd"`
	Signal           float64 `json:"signal"`
	Histogram        float64 `json:"histogram"`
	BullishCrossover bool    `json:"bullish_crossover"`
	BearishCrossover bool    `json:"bearish_crossover"`
	IsValid          bool    `json:"is_valid"`
}

// CalculateMACD computes MACD(fast, slow, signal). Crossovers are
// detected by comparing the sign of the last two histogram values.
func CalculateMACD(closes []float64, fast, slow, signalPeriod int) MACDResult {
	if len(closes) < slow+signalPeriod {
		return MACDResult{}
	}

	fastEMA := emaSeries(closes, fast)
	slowEMA := emaSeries(closes, slow)

	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := emaSeries(macdLine[slow-1:], signalPeriod)
	offset := slow - 1

	last := len(closes) - 1
	prev := last - 1

	histLast := macdLine[last] - signalLine[last-offset]
	histPrev := macdLine[prev] - signalLine[prev-offset]

	return MACDResult{
		MACD:             macdLine[last],
		Signal:           signalLine[last-offset],
		Histogram:        histLast,
		BullishCrossover: histPrev <= 0 && histLast > 0,
		BearishCrossover: histPrev >= 0 && histLast < 0,
		IsValid:          true,
	}
}

// emaSeries returns the full EMA series seeded with an SMA of the first
// period values.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	if len(values) < period {
		copy(out, values)
		return out
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	for i := 0; i < period; i++ {
		out[i] = seed
	}

	alpha := 2.0 / (float64(period) + 1.0)
	for i := period; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// ADXResult is the average directional index with its trend bucket.
type ADXResult struct {
	ADX      float64 `json:"adx"`
	PlusDI   float64 `json:"plus_di"`
	MinusDI  float64 `json:"minus_di"`
	Strength string  `json:"strength"`
	IsValid  bool    `json:"is_valid"`
}

// ADX trend strength buckets.
const (
	TrendRangeBound = "RANGE_BOUND"
	TrendWeak       = "WEAK_TREND"
	TrendModerate   = "MODERATE_TREND"
	TrendStrong     = "STRONG_TREND"
)

// CalculateADX computes ADX(period) via Wilder-smoothed directional
// movement.
func CalculateADX(bars []provider.PriceBar, period int) ADXResult {
	if len(bars) < period*2+1 {
		return ADXResult{}
	}

	var smTR, smPlusDM, smMinusDM float64
	dxValues := make([]float64, 0, len(bars))
	alpha := 1.0 / float64(period)

	for i := 1; i < len(bars); i++ {
		cur, prev := bars[i], bars[i-1]

		tr := math.Max(cur.High-cur.Low,
			math.Max(math.Abs(cur.High-prev.Close), math.Abs(cur.Low-prev.Close)))

		plusMove := cur.High - prev.High
		minusMove := prev.Low - cur.Low
		plusDM, minusDM := 0.0, 0.0
		if plusMove > minusMove && plusMove > 0 {
			plusDM = plusMove
		}
		if minusMove > plusMove && minusMove > 0 {
			minusDM = minusMove
		}

		if i <= period {
			smTR += tr
			smPlusDM += plusDM
			smMinusDM += minusDM
			if i < period {
				continue
			}
		} else {
			smTR = smTR*(1-alpha) + tr
			smPlusDM = smPlusDM*(1-alpha) + plusDM
			smMinusDM = smMinusDM*(1-alpha) + minusDM
		}

		if smTR > 0 {
			pdi := 100.0 * smPlusDM / smTR
			mdi := 100.0 * smMinusDM / smTR
			if pdi+mdi > 0 {
				dxValues = append(dxValues, 100.0*math.Abs(pdi-mdi)/(pdi+mdi))
			}
		}
	}

	if len(dxValues) < period {
		return ADXResult{}
	}

	adx := 0.0
	for i := 0; i < period; i++ {
		adx += dxValues[i]
	}
	adx /= float64(period)
	for i := period; i < len(dxValues); i++ {
		adx = adx*(1-alpha) + dxValues[i]*alpha
	}

	pdi, mdi := 0.0, 0.0
	if smTR > 0 {
		pdi = 100.0 * smPlusDM / smTR
		mdi = 100.0 * smMinusDM / smTR
	}

	return ADXResult{ADX: adx, PlusDI: pdi, MinusDI: mdi, Strength: adxStrength(adx), IsValid: true}
}

func adxStrength(adx float64) string {
	switch {
	case adx < 20:
		return TrendRangeBound
	case adx < 25:
		return TrendWeak
	case adx < 40:
		return TrendModerate
	default:
		return TrendStrong
	}
}

// MovingAverages holds SMA/EMA levels and cross detection.
type MovingAverages struct {
	SMA20       float64 `json:"sma_20"`
	SMA50       float64 `json:"sma_50"`
	SMA200      float64 `json:"sma_200"`
	EMA12       float64 `json:"ema_12"`
	EMA26       float64 `json:"ema_26"`
	GoldenCross bool    `json:"golden_cross"`
	DeathCross  bool    `json:"death_cross"`
	HasSMA200   bool    `json:"has_sma_200"`
	IsValid     bool    `json:"is_valid"`
}

// CalculateMovingAverages computes SMA(20/50/200) and EMA(12/26). Golden
// and death crosses compare the SMA50/SMA200 ordering across the last
// two periods.
func CalculateMovingAverages(closes []float64) MovingAverages {
	if len(closes) < 50 {
		return MovingAverages{}
	}

	ma := MovingAverages{
		SMA20:   sma(closes, 20),
		SMA50:   sma(closes, 50),
		EMA12:   lastEMA(closes, 12),
		EMA26:   lastEMA(closes, 26),
		IsValid: true,
	}

	if len(closes) >= 201 {
		ma.SMA200 = sma(closes, 200)
		ma.HasSMA200 = true

		prevCloses := closes[:len(closes)-1]
		prev50 := sma(prevCloses, 50)
		prev200 := sma(prevCloses, 200)

		ma.GoldenCross = prev50 <= prev200 && ma.SMA50 > ma.SMA200
		ma.DeathCross = prev50 >= prev200 && ma.SMA50 < ma.SMA200
	}

	return ma
}

// sma averages the trailing period closes.
func sma(values []float64, period int) float64 {
	if len(values) < period || period <= 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

func lastEMA(values []float64, period int) float64 {
	series := emaSeries(values, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// BollingerResult is Bollinger Bands(20,2) with position and squeeze.
type BollingerResult struct {
	Upper     float64 `json:"upper"`
	Middle    float64 `json:"middle"`
	Lower     float64 `json:"lower"`
	Position  float64 `json:"position"` // 0 at lower band, 1 at upper
	BandWidth float64 `json:"band_width"`
	Squeeze   bool    `json:"squeeze"`
	IsValid   bool    `json:"is_valid"`
}

// CalculateBollinger computes Bollinger Bands over the trailing period
// with the given standard-deviation multiplier. A squeeze is flagged
// when the current band width sits below the 10th percentile of its own
// trailing values.
func CalculateBollinger(closes []float64, period int, mult float64) BollingerResult {
	if len(closes) < period {
		return BollingerResult{}
	}

	widths := make([]float64, 0, len(closes)-period+1)
	var result BollingerResult
	for end := period; end <= len(closes); end++ {
		window := closes[end-period : end]
		mean := sma(window, period)

		variance := 0.0
		for _, v := range window {
			variance += (v - mean) * (v - mean)
		}
		std := math.Sqrt(variance / float64(period))

		upper := mean + mult*std
		lower := mean - mult*std
		width := 0.0
		if mean > 0 {
			width = (upper - lower) / mean
		}
		widths = append(widths, width)

		if end == len(closes) {
			result = BollingerResult{Upper: upper, Middle: mean, Lower: lower, BandWidth: width, IsValid: true}
			last := closes[end-1]
			if upper > lower {
				result.Position = clampFloat((last-lower)/(upper-lower), 0, 1)
			} else {
				result.Position = 0.5
			}
		}
	}

	result.Squeeze = result.BandWidth <= percentile(widths, 0.10)
	return result
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// OBVResult is on-balance volume with its trend vs a 20-period SMA.
type OBVResult struct {
	Value   float64 `json:"value"`
	SMA20   float64 `json:"sma_20"`
	Trend   string  `json:"trend"` // RISING, FALLING, NEUTRAL
	IsValid bool    `json:"is_valid"`
}

// CalculateOBV computes on-balance volume and classifies its trend
// against a 20-period SMA with a 5% neutral band.
func CalculateOBV(bars []provider.PriceBar) OBVResult {
	if len(bars) < 21 {
		return OBVResult{}
	}

	obv := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			obv[i] = obv[i-1] + float64(bars[i].Volume)
		case bars[i].Close < bars[i-1].Close:
			obv[i] = obv[i-1] - float64(bars[i].Volume)
		default:
			obv[i] = obv[i-1]
		}
	}

	last := obv[len(obv)-1]
	mean := sma(obv, 20)

	trend := "NEUTRAL"
	band := math.Abs(mean) * 0.05
	switch {
	case last > mean+band:
		trend = "RISING"
	case last < mean-band:
		trend = "FALLING"
	}

	return OBVResult{Value: last, SMA20: mean, Trend: trend, IsValid: true}
}

// VWAPResult is the 20-day volume-weighted average price.
type VWAPResult struct {
	Value       float64 `json:"value"`
	DistancePct float64 `json:"distance_pct"` // close vs VWAP, percent
	IsValid     bool    `json:"is_valid"`
}

// CalculateVWAP computes the trailing 20-day VWAP from typical prices.
func CalculateVWAP(bars []provider.PriceBar) VWAPResult {
	const window = 20
	if len(bars) < window {
		return VWAPResult{}
	}

	var pvSum, volSum float64
	for _, bar := range bars[len(bars)-window:] {
		typical := (bar.High + bar.Low + bar.Close) / 3
		pvSum += typical * float64(bar.Volume)
		volSum += float64(bar.Volume)
	}
	if volSum == 0 {
		return VWAPResult{}
	}

	vwap := pvSum / volSum
	last := bars[len(bars)-1].Close
	return VWAPResult{
		Value:       vwap,
		DistancePct: (last - vwap) / vwap * 100,
		IsValid:     true,
	}
}

// PivotPoints are classic support/resistance levels from the trailing
// 20-day high, low and close.
type PivotPoints struct {
	Pivot   float64 `json:"pivot"`
	R1      float64 `json:"r1"`
	R2      float64 `json:"r2"`
	S1      float64 `json:"s1"`
	S2      float64 `json:"s2"`
	IsValid bool    `json:"is_valid"`
}

// CalculatePivots derives pivot levels from the trailing 20 bars.
func CalculatePivots(bars []provider.PriceBar) PivotPoints {
	const window = 20
	if len(bars) < window {
		return PivotPoints{}
	}

	recent := bars[len(bars)-window:]
	high := recent[0].High
	low := recent[0].Low
	for _, bar := range recent {
		high = math.Max(high, bar.High)
		low = math.Min(low, bar.Low)
	}
	closePrice := recent[len(recent)-1].Close

	pivot := (high + low + closePrice) / 3
	return PivotPoints{
		Pivot:   pivot,
		R1:      2*pivot - low,
		S1:      2*pivot - high,
		R2:      pivot + (high - low),
		S2:      pivot - (high - low),
		IsValid: true,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
