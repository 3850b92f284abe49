package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	cmd.AddCommand(newDBCleanupCmd())
	cmd.AddCommand(newDBStatsCmd())
	cmd.AddCommand(newDBDivergenceCmd())
	cmd.AddCommand(newDBTopFlowCmd())
	return cmd
}

func newDBCleanupCmd() *cobra.Command {
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete rows older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if retentionDays > 0 {
				cfg.RetentionDays = retentionDays
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			removed, err := db.Cleanup(cmd.Context(), cfg.RetentionDays)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d rows older than %d days\n", removed, cfg.RetentionDays)
			return nil
		},
	}

	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "override configured retention window")
	return cmd
}

func newDBDivergenceCmd() *cobra.Command {
	var trailingDays int

	cmd := &cobra.Command{
		Use:   "divergence <ticker>",
		Short: "Compare today's flow against the trailing baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ticker := strings.ToUpper(args[0])
			d, err := db.DetectDivergence(cmd.Context(), ticker, trailingDays)
			if err != nil {
				return err
			}

			fmt.Printf("%s divergence over %d trailing days\n", ticker, trailingDays)
			printSide := func(label string, today, baseline, ratio float64, diverged bool) {
				flag := ""
				if diverged {
					flag = "  DIVERGED"
				}
				fmt.Printf("  %-10s today $%.0f vs mean $%.0f (%.2fx)%s\n", label, today, baseline, ratio, flag)
			}
			printSide("total", d.TodayFlow, d.BaselineFlow, d.FlowRatio, d.FlowDiverged)
			printSide("puts", d.TodayPutFlow, d.BaselinePutFlow, d.PutFlowRatio, d.PutDiverged)
			printSide("calls", d.TodayCallFlow, d.BaselineCallFlow, d.CallFlowRatio, d.CallDiverged)
			flag := ""
			if d.RatioDiverged {
				flag = "  DIVERGED"
			}
			fmt.Printf("  %-10s today %.2f vs mean %.2f%s\n", "p/c ratio", d.TodayPCRatio, d.BaselinePC, flag)
			return nil
		},
	}

	cmd.Flags().IntVar(&trailingDays, "days", 20, "trailing baseline window in days")
	return cmd
}

func newDBTopFlowCmd() *cobra.Command {
	var (
		days    int
		minFlow float64
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "top-flow",
		Short: "Rank tickers by total premium flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.TopFlow(cmd.Context(), days, minFlow, limit)
			if err != nil {
				return err
			}
			for i, e := range entries {
				fmt.Printf("%2d. %-6s $%.0f over %d day(s)\n", i+1, e.Ticker, e.TotalFlow, e.Days)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "trailing window in days")
	cmd.Flags().Float64Var(&minFlow, "min-flow", 100_000, "minimum total premium flow")
	cmd.Flags().IntVar(&limit, "limit", 20, "rows to print")
	return cmd
}

func newDBStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print row counts per table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.DatabaseStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("flow_events:     %d\ndaily_summary:   %d\nalerts:          %d\n",
				stats.FlowEvents, stats.DailySummaries, stats.Alerts)
			return nil
		},
	}
}
