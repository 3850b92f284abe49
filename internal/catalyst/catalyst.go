// Package catalyst scores news headlines as discovery catalysts using
// tiered keyword matching with an analyst-firm multiplier.
package catalyst

import (
	"math"
	"strings"
	"time"

	"github.com/flowradar/flowradar/internal/provider"
)

// Sentiment is the net read across all scored headlines.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentMixed    Sentiment = "MIXED"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// keywordTier maps phrases to base points. Tier-1 events are hard
// catalysts, tier-3 soft color.
type keywordTier struct {
	phrases []string
	points  float64
}

var positiveTiers = []keywordTier{
	{phrases: []string{"beat", "raised guidance", "raises guidance", "insider buying"}, points: 30},
	{phrases: []string{"upgrade", "upgraded", "approval", "approved", "acquisition", "acquires"}, points: 20},
	{phrases: []string{"strong earnings", "record revenue", "buyback"}, points: 10},
}

var negativeTiers = []keywordTier{
	{phrases: []string{"miss", "missed estimates", "lowered guidance", "cuts guidance", "insider selling"}, points: 30},
	{phrases: []string{"downgrade", "downgraded", "rejection", "rejected", "investigation", "probe"}, points: 20},
	{phrases: []string{"weak earnings", "declining revenue", "layoffs"}, points: 10},
}

// tierOneFirms earn a 1.5x multiplier when named in a headline.
var tierOneFirms = []string{
	"goldman", "morgan stanley", "jpmorgan", "j.p. morgan",
	"bank of america", "citigroup", "barclays", "ubs",
}

const firmMultiplier = 1.5

// maxNewsAge bounds how far back headlines count as catalysts.
const maxNewsAge = 7 * 24 * time.Hour

// ScoredHeadline records one headline's contribution.
type ScoredHeadline struct {
	Title    string  `json:"title"`
	Points   float64 `json:"points"` // signed, after multiplier
	FirmMult bool    `json:"firm_mult"`
}

// Result is the catalyst read for one ticker.
type Result struct {
	Ticker         string           `json:"ticker"`
	Score          float64          `json:"score"` // 0-100
	Sentiment      Sentiment        `json:"sentiment"`
	PositiveWeight float64          `json:"positive_weight"`
	NegativeWeight float64          `json:"negative_weight"`
	Headlines      []ScoredHeadline `json:"headlines"`
}

// ScoreNews scores recent headlines. Sentiment compares weighted
// positive vs negative totals: a 1.3x dominance either way decides,
// overlapping weights read as mixed, no matches as neutral. The score is
// the net weight clamped to [0,100]; a bearish tape scores 0.
func ScoreNews(ticker string, items []provider.NewsItem, now time.Time) Result {
	result := Result{Ticker: ticker, Sentiment: SentimentNeutral}

	for _, item := range items {
		if !item.PubDate.IsZero() && now.Sub(item.PubDate) > maxNewsAge {
			continue
		}

		title := strings.ToLower(item.Title)
		points := matchTiers(title, positiveTiers) - matchTiers(title, negativeTiers)
		if points == 0 {
			continue
		}

		firmMult := mentionsTierOneFirm(title)
		if firmMult {
			points *= firmMultiplier
		}

		result.Headlines = append(result.Headlines, ScoredHeadline{
			Title:    item.Title,
			Points:   points,
			FirmMult: firmMult,
		})
		if points > 0 {
			result.PositiveWeight += points
		} else {
			result.NegativeWeight += -points
		}
	}

	result.Sentiment = classify(result.PositiveWeight, result.NegativeWeight)

	net := result.PositiveWeight - result.NegativeWeight
	if net > 0 {
		result.Score = math.Min(net, 100)
	}
	return result
}

// matchTiers returns the highest-tier match in the title. A headline
// matches at most one tier per direction so "beat" plus "record revenue"
// counts once at tier 1.
func matchTiers(title string, tiers []keywordTier) float64 {
	for _, tier := range tiers {
		for _, phrase := range tier.phrases {
			if strings.Contains(title, phrase) {
				return tier.points
			}
		}
	}
	return 0
}

func mentionsTierOneFirm(title string) bool {
	for _, firm := range tierOneFirms {
		if strings.Contains(title, firm) {
			return true
		}
	}
	return false
}

func classify(positive, negative float64) Sentiment {
	switch {
	case positive == 0 && negative == 0:
		return SentimentNeutral
	case negative == 0 || positive/nonZero(negative) > 1.3:
		return SentimentPositive
	case positive == 0 || negative/nonZero(positive) > 1.3:
		return SentimentNegative
	default:
		return SentimentMixed
	}
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1e-9
	}
	return v
}
