package flow

import (
	"fmt"

	"github.com/flowradar/flowradar/internal/alerts"
)

// Alert rule thresholds, calibrated against the aggregated per-ticker
// stats rather than individual events.
const (
	putBlockPremiumThreshold = 500_000.0
	callFlowThreshold        = 1_000_000.0
	putCallRatioThreshold    = 3.0
)

// RuleMatch pairs a fired alert with the rule that produced it.
type RuleMatch struct {
	Rule  string       `json:"rule"`
	Alert alerts.Alert `json:"alert"`
}

// EvaluateRules runs the per-ticker alert rule table. Rules are
// independent and every matching rule fires; the LOW all-clear fires only
// when no rule matched. Severity is monotonic in the triggering metric:
// put sweeps always outrank put blocks, which outrank skew.
func EvaluateRules(stats TickerStats) []RuleMatch {
	var matches []RuleMatch

	if stats.PutBlockPremium > putBlockPremiumThreshold {
		matches = append(matches, RuleMatch{
			Rule: "put_block_premium",
			Alert: alerts.New(stats.Ticker, "PUT_BLOCKS", alerts.SeverityHigh,
				"Large put block activity",
				fmt.Sprintf("Put blocks totaling $%.0f in premium detected across %d block trades",
					stats.PutBlockPremium, stats.BlockCount),
				"Institutional put positioning; review downside hedges before selling puts"),
		})
	}

	if stats.PutSweepCount > 0 {
		matches = append(matches, RuleMatch{
			Rule: "put_sweep",
			Alert: alerts.New(stats.Ticker, "PUT_SWEEP", alerts.SeverityCritical,
				"Put sweep detected",
				fmt.Sprintf("%d put sweep(s) executed across multiple exchanges", stats.PutSweepCount),
				"Urgent bearish conviction; avoid opening new short-put exposure"),
		})
	}

	if stats.CallFlow > callFlowThreshold {
		matches = append(matches, RuleMatch{
			Rule: "call_premium_flow",
			Alert: alerts.New(stats.Ticker, "CALL_FLOW", alerts.SeverityMedium,
				"Heavy call premium flow",
				fmt.Sprintf("Call premium flow of $%.0f this session", stats.CallFlow),
				"Bullish positioning; covered-call strikes may need to move up"),
		})
	}

	if stats.PutCallFlowRatio > putCallRatioThreshold {
		matches = append(matches, RuleMatch{
			Rule: "put_call_skew",
			Alert: alerts.New(stats.Ticker, "PC_SKEW", alerts.SeverityHigh,
				"Extreme put/call flow skew",
				fmt.Sprintf("Put flow is %.1fx call flow ($%.0f vs $%.0f)",
					stats.PutCallFlowRatio, stats.PutFlow, stats.CallFlow),
				"Downside positioning dominates; size down wheel entries"),
		})
	}

	if len(matches) == 0 {
		matches = append(matches, RuleMatch{
			Rule: "all_clear",
			Alert: alerts.New(stats.Ticker, "NO_UNUSUAL_ACTIVITY", alerts.SeverityLow,
				"No unusual options activity",
				fmt.Sprintf("Scanned %d contracts, $%.0f total premium flow", stats.ContractsScanned, stats.TotalPremiumFlow),
				"No flow-based adjustment needed"),
		})
	}

	return matches
}
