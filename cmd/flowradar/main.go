package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "flowradar"
	version = "v1.2.0"
)

var (
	flagConfig  string
	flagStub    bool
	flagVerbose bool
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Options-flow detection and discovery scoring engine",
		Version: version,
		Long: `FlowRadar classifies option trade ticks into institutional activity
(block trades, multi-exchange sweeps, aggressive buying), scans a stock
universe for unusual-activity signals, fuses them into a bounded
discovery score, and runs a market-hours monitor that persists flow
history and dispatches deduplicated alerts.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config (defaults apply when omitted)")
	rootCmd.PersistentFlags().BoolVar(&flagStub, "stub", false, "use the seeded stub data provider")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newDiscoverCmd())
	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newDBCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
