package technical

// Entry signal buckets, from the composite score thresholds 70/55/40/25.
const (
	SignalStrongBuy   = "STRONG_BUY"
	SignalBuy         = "BUY"
	SignalNeutral     = "NEUTRAL"
	SignalAvoid       = "AVOID"
	SignalStrongAvoid = "STRONG_AVOID"
)

// momentumScore builds the momentum sub-score from RSI, MACD and
// relative strength. Seeded at 50, each rule adds or subtracts, clamped
// to [0,100]. Oversold conditions score positively: the engine hunts
// entries, not exits.
func momentumScore(a *Analysis) float64 {
	score := 50.0

	if a.RSI.IsValid {
		switch a.RSI.Zone {
		case ZoneExtremelyOversold:
			score += 15
		case ZoneOversold:
			score += 10
		case ZoneNeutralBullish:
			score += 5
		case ZoneOverbought:
			score -= 10
		case ZoneExtremelyOverbought:
			score -= 15
		}
	}

	if a.MACD.IsValid {
		switch {
		case a.MACD.BullishCrossover:
			score += 15
		case a.MACD.BearishCrossover:
			score -= 15
		case a.MACD.Histogram > 0:
			score += 5
		case a.MACD.Histogram < 0:
			score -= 5
		}
	}

	if a.RelativeStrength.IsValid {
		switch a.RelativeStrength.Trend {
		case RSAccelerating:
			score += 15
		case RSOutperforming:
			score += 10
		case RSUnderperforming:
			score -= 10
		}
	}

	return clampFloat(score, 0, 100)
}

// trendScore builds the trend sub-score from ADX direction, moving
// average stacking and golden/death crosses.
func trendScore(a *Analysis, lastClose float64) float64 {
	score := 50.0

	if a.ADX.IsValid {
		direction := 1.0
		if a.ADX.MinusDI > a.ADX.PlusDI {
			direction = -1.0
		}
		switch a.ADX.Strength {
		case TrendStrong:
			score += direction * 15
		case TrendModerate:
			score += direction * 10
		case TrendWeak:
			score += direction * 5
		}
	}

	if a.MovingAverages.IsValid {
		switch {
		case a.MovingAverages.GoldenCross:
			score += 20
		case a.MovingAverages.DeathCross:
			score -= 20
		}

		if lastClose > a.MovingAverages.SMA20 && a.MovingAverages.SMA20 > a.MovingAverages.SMA50 {
			score += 10
		} else if lastClose < a.MovingAverages.SMA20 && a.MovingAverages.SMA20 < a.MovingAverages.SMA50 {
			score -= 10
		}

		if a.MovingAverages.HasSMA200 && lastClose > a.MovingAverages.SMA200 {
			score += 5
		}
	}

	return clampFloat(score, 0, 100)
}

// volatilityScore rewards compression (squeeze setups) and entries near
// the lower band, penalizes chasing the upper band.
func volatilityScore(a *Analysis) float64 {
	score := 50.0

	if a.Bollinger.IsValid {
		if a.Bollinger.Squeeze {
			score += 15
		}
		switch {
		case a.Bollinger.Position <= 0.2:
			score += 10
		case a.Bollinger.Position >= 0.8:
			score -= 10
		}
	}

	if a.Pivots.IsValid && a.VWAP.IsValid {
		// Price holding between S1 and the pivot is a constructive pullback.
		if a.VWAP.Value >= a.Pivots.S1 && a.VWAP.Value <= a.Pivots.R1 {
			score += 5
		}
	}

	return clampFloat(score, 0, 100)
}

// volumeScore builds the volume sub-score from OBV trend and VWAP
// positioning.
func volumeScore(a *Analysis) float64 {
	score := 50.0

	if a.OBV.IsValid {
		switch a.OBV.Trend {
		case "RISING":
			score += 15
		case "FALLING":
			score -= 15
		}
	}

	if a.VWAP.IsValid {
		switch {
		case a.VWAP.DistancePct > 2:
			score += 10
		case a.VWAP.DistancePct > 0:
			score += 5
		case a.VWAP.DistancePct < -2:
			score -= 10
		}
	}

	return clampFloat(score, 0, 100)
}

// entrySignal buckets the composite score and pairs it with a confidence
// label: conviction is highest at the extremes of the scale.
func entrySignal(score float64) (string, string) {
	switch {
	case score >= 70:
		return SignalStrongBuy, "HIGH"
	case score >= 55:
		return SignalBuy, "MEDIUM"
	case score >= 40:
		return SignalNeutral, "LOW"
	case score >= 25:
		return SignalAvoid, "MEDIUM"
	default:
		return SignalStrongAvoid, "HIGH"
	}
}
