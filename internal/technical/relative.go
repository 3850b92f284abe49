package technical

import (
	"github.com/flowradar/flowradar/internal/provider"
)

// RelativeStrengthResult compares a ticker's cumulative return against a
// benchmark index over a common date range.
type RelativeStrengthResult struct {
	Ratio20 float64 `json:"ratio_20"` // 20-day window ratio
	Ratio50 float64 `json:"ratio_50"` // 50-day window ratio
	Trend   string  `json:"trend"`
	IsValid bool    `json:"is_valid"`
}

// Relative strength trend classifications, from a 5% band comparison of
// the 20-day vs 50-day window ratios.
const (
	RSAccelerating    = "ACCELERATING_OUTPERFORMANCE"
	RSOutperforming   = "OUTPERFORMING"
	RSUnderperforming = "UNDERPERFORMING"
	RSNeutral         = "NEUTRAL"
)

// CalculateRelativeStrength computes the ratio of cumulative returns of
// the ticker vs the benchmark over 20- and 50-day windows. The trend is
// accelerating when the short-window ratio runs 5% above the long-window
// ratio, underperformance when the 20-day ratio is 5% below parity.
func CalculateRelativeStrength(bars, benchmark []provider.PriceBar) RelativeStrengthResult {
	common := len(bars)
	if len(benchmark) < common {
		common = len(benchmark)
	}
	if common < 51 {
		return RelativeStrengthResult{}
	}

	bars = bars[len(bars)-common:]
	benchmark = benchmark[len(benchmark)-common:]

	ratio20, ok20 := windowRatio(bars, benchmark, 20)
	ratio50, ok50 := windowRatio(bars, benchmark, 50)
	if !ok20 || !ok50 {
		return RelativeStrengthResult{}
	}

	trend := RSNeutral
	switch {
	case ratio20 > ratio50*1.05 && ratio20 > 1.0:
		trend = RSAccelerating
	case ratio20 > 1.05:
		trend = RSOutperforming
	case ratio20 < 0.95:
		trend = RSUnderperforming
	}

	return RelativeStrengthResult{Ratio20: ratio20, Ratio50: ratio50, Trend: trend, IsValid: true}
}

// windowRatio returns (1+tickerReturn)/(1+benchmarkReturn) over the
// trailing window.
func windowRatio(bars, benchmark []provider.PriceBar, window int) (float64, bool) {
	if len(bars) < window+1 || len(benchmark) < window+1 {
		return 0, false
	}

	tickerStart := bars[len(bars)-window-1].Close
	tickerEnd := bars[len(bars)-1].Close
	benchStart := benchmark[len(benchmark)-window-1].Close
	benchEnd := benchmark[len(benchmark)-1].Close

	if tickerStart <= 0 || benchStart <= 0 {
		return 0, false
	}

	tickerGrowth := tickerEnd / tickerStart
	benchGrowth := benchEnd / benchStart
	if benchGrowth == 0 {
		return 0, false
	}
	return tickerGrowth / benchGrowth, true
}
