package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowradar/flowradar/internal/discovery"
	"github.com/flowradar/flowradar/internal/quality"
	"github.com/flowradar/flowradar/internal/signals"
	"github.com/flowradar/flowradar/internal/technical"
)

func newDiscoverCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "discover [tickers...]",
		Short: "Score a ticker universe for discovery candidates",
		Long:  "Run the multi-factor discovery scorer (signals + quality + technicals + catalysts) over a universe with a bounded worker pool and print the ranked candidates.",
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

			universe := args
			if len(universe) == 0 {
				universe = cfg.Monitor.Watchlist
			}
			for i := range universe {
				universe[i] = strings.ToUpper(universe[i])
			}

			scorer := discovery.NewScorer(
				dataProvider,
				signals.NewDetector(dataProvider, cfg.Detector),
				quality.NewValidator(dataProvider, cfg.Validator),
				technical.NewAnalyzer(dataProvider, cfg.Technical),
				cfg.Discovery,
			)
			scanner := discovery.NewUniverseScanner(scorer)

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Minute)
			defer cancel()

			scan := scanner.Scan(ctx, universe)
			fmt.Printf("Scanned %d tickers in %s: %d qualified, %d failed\n\n",
				scan.Scanned, scan.Elapsed.Round(time.Millisecond), len(scan.Qualified), scan.Failed)

			for i, result := range scan.Qualified {
				if top > 0 && i >= top {
					break
				}
				fmt.Printf("%2d. %-6s score %.1f  confidence %.0f (%s)\n",
					i+1, result.Ticker, result.DiscoveryScore, result.ConfidenceScore, result.ConfidenceLevel)
				for _, reason := range result.Reasons {
					fmt.Printf("      - %s\n", reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "number of candidates to print (0 = all)")
	return cmd
}
