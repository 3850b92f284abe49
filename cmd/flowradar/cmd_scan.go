package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/flowradar/flowradar/internal/alerts"
	"github.com/flowradar/flowradar/internal/flow"
)

// severityFlag validates alert severities at flag-parse time so a typo
// fails the command instead of silently filtering everything out.
type severityFlag struct {
	value alerts.Severity
}

var _ pflag.Value = (*severityFlag)(nil)

func (f *severityFlag) String() string { return string(f.value) }

func (f *severityFlag) Type() string { return "severity" }

func (f *severityFlag) Set(raw string) error {
	sev := alerts.Severity(strings.ToUpper(raw))
	if sev.Rank() == 0 {
		return fmt.Errorf("unknown severity %q (use LOW, MEDIUM, HIGH or CRITICAL)", raw)
	}
	f.value = sev
	return nil
}

func newScanCmd() *cobra.Command {
	var (
		maxExpirations int
		lookbackTrades int
		minSeverity    = severityFlag{value: alerts.SeverityLow}
	)

	cmd := &cobra.Command{
		Use:   "scan [tickers...]",
		Short: "Scan tickers for unusual options flow",
		Long:  "Classify recent option trade ticks into block/sweep/aggressive events and evaluate the per-ticker alert rules. Defaults to the configured watchlist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dataProvider, closeProvider, err := buildProvider(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer closeProvider()

			tickers := args
			if len(tickers) == 0 {
				tickers = cfg.Monitor.Watchlist
			}

			scanner := flow.NewScanner(dataProvider, cfg.Scanner)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			for _, ticker := range tickers {
				result, err := scanner.Scan(ctx, strings.ToUpper(ticker), maxExpirations, lookbackTrades)
				if err != nil {
					fmt.Printf("%-6s scan failed: %v\n", ticker, err)
					continue
				}
				printScanResult(result, minSeverity.value)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxExpirations, "max-expirations", 2, "expirations to scan per ticker")
	cmd.Flags().IntVar(&lookbackTrades, "lookback", 200, "recent trades to classify per contract")
	cmd.Flags().Var(&minSeverity, "min-severity", "lowest alert severity to print")
	return cmd
}

func printScanResult(result *flow.ScanResult, minSeverity alerts.Severity) {
	s := result.Stats
	fmt.Printf("\n%s: premium flow $%.0f (calls $%.0f / puts $%.0f), %d contracts scanned, %d skipped\n",
		s.Ticker, s.TotalPremiumFlow, s.CallFlow, s.PutFlow, s.ContractsScanned, s.ContractsSkipped)

	for _, event := range result.Events {
		kinds := make([]string, 0, 3)
		for _, k := range event.Kinds() {
			kinds = append(kinds, string(k))
		}
		fmt.Printf("  %s %.2f %s exp %s: %s (vol %d, largest %d, premium $%.0f)\n",
			event.Ticker, event.Strike, event.Right, event.Expiration.Format("2006-01-02"),
			strings.Join(kinds, "+"), event.TotalVolume, event.LargestTrade, event.PremiumFlow)
	}

	for _, match := range result.Alerts {
		if match.Alert.Severity.Rank() < minSeverity.Rank() {
			continue
		}
		fmt.Printf("  [%s] %s: %s\n", match.Alert.Severity, match.Alert.Title, match.Alert.Message)
	}
}
