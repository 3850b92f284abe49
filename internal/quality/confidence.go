package quality

// ConfidenceLevel buckets a confidence score.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// ConfidenceInput gathers the factors feeding the confidence score.
type ConfidenceInput struct {
	SignalCount       int
	DataQuality       DataQuality
	TotalOpenInterest int64
	CatalystScore     float64
	Insider           InsiderAnalysis
	FundamentalScore  float64
}

// ConfidenceResult is the scored confidence with its level bucket.
type ConfidenceResult struct {
	Score float64         `json:"score"`
	Level ConfidenceLevel `json:"level"`
}

// Confidence computes a 0-100 confidence score from an additive rule
// table seeded at 50, then buckets it: HIGH at 75+, MEDIUM at 50-74,
// LOW below.
func Confidence(in ConfidenceInput) ConfidenceResult {
	score := 50.0

	switch {
	case in.SignalCount >= 5:
		score += 25
	case in.SignalCount >= 3:
		score += 15
	case in.SignalCount >= 2:
		score += 10
	}

	switch in.DataQuality {
	case QualityHigh:
		score += 20
	case QualityMedium:
		score += 10
	default:
		score -= 10
	}

	switch {
	case in.TotalOpenInterest > 50_000:
		score += 15
	case in.TotalOpenInterest > 10_000:
		score += 10
	case in.TotalOpenInterest > 1_000:
		score += 5
	default:
		score -= 10
	}

	switch {
	case in.CatalystScore >= 50:
		score += 15
	case in.CatalystScore >= 25:
		score += 8
	case in.CatalystScore > 0:
		score += 5
	}

	switch {
	case in.Insider.Sentiment == InsiderBullish && in.Insider.Boost >= 9:
		score += 15
	case in.Insider.Sentiment == InsiderBullish:
		score += 8
	case in.Insider.Sentiment == InsiderBearish:
		score -= 10
	}

	switch {
	case in.FundamentalScore >= 70:
		score += 10
	case in.FundamentalScore >= 50:
		score += 5
	case in.FundamentalScore < 30:
		score -= 5
	}

	score = clamp(score, 0, 100)

	level := ConfidenceLow
	switch {
	case score >= 75:
		level = ConfidenceHigh
	case score >= 50:
		level = ConfidenceMedium
	}

	return ConfidenceResult{Score: score, Level: level}
}
