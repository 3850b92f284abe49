package quality

import (
	"context"
	"math"
	"time"
)

// InsiderSentiment classifies trailing insider activity.
type InsiderSentiment string

const (
	InsiderBullish InsiderSentiment = "BULLISH"
	InsiderBearish InsiderSentiment = "BEARISH"
	InsiderNeutral InsiderSentiment = "NEUTRAL"
)

// InsiderAnalysis summarizes trailing-90-day insider transactions.
type InsiderAnalysis struct {
	Ticker    string           `json:"ticker"`
	Buys      int              `json:"buys"`
	Sells     int              `json:"sells"`
	Sentiment InsiderSentiment `json:"sentiment"`
	Boost     float64          `json:"boost"`
}

// insiderWindow is the trailing window for sentiment classification.
const insiderWindow = 90 * 24 * time.Hour

// AnalyzeInsiders counts buy vs sell transactions over the trailing 90
// days. Buys above twice sells is bullish (boost min(15, buys*3)); sells
// above twice buys is bearish (boost max(-15, -sells*2)); otherwise
// neutral with no boost. A provider failure yields a neutral analysis.
func (v *Validator) AnalyzeInsiders(ctx context.Context, ticker string) InsiderAnalysis {
	analysis := InsiderAnalysis{Ticker: ticker, Sentiment: InsiderNeutral}

	txns, err := v.provider.InsiderTransactions(ctx, ticker, insiderWindow)
	if err != nil {
		v.logger.Debug().Err(err).Str("ticker", ticker).Msg("Insider data unavailable")
		return analysis
	}

	for _, txn := range txns {
		switch txn.Type {
		case "BUY":
			analysis.Buys++
		case "SELL":
			analysis.Sells++
		}
	}

	switch {
	case analysis.Buys > 2*analysis.Sells && analysis.Buys > 0:
		analysis.Sentiment = InsiderBullish
		analysis.Boost = math.Min(15, float64(analysis.Buys)*3)
	case analysis.Sells > 2*analysis.Buys && analysis.Sells > 0:
		analysis.Sentiment = InsiderBearish
		analysis.Boost = math.Max(-15, -float64(analysis.Sells)*2)
	}

	return analysis
}
