package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/flowradar/flowradar/internal/alerts"
	"github.com/flowradar/flowradar/internal/flow"
	"github.com/flowradar/flowradar/internal/metrics"
	"github.com/flowradar/flowradar/internal/monitor"
)

func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run the continuous market-hours flow monitor",
		Long:  "Scan the watchlist on an interval during market hours, persist flow events and daily summaries, and dispatch deduplicated alerts. Serves /health, /metrics and /alerts/recent over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			prom := metrics.New()
			dataProvider, closeProvider, err := buildProvider(cmd.Context(), cfg, prom)
			if err != nil {
				return err
			}
			defer closeProvider()

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			scanner := flow.NewScanner(dataProvider, cfg.Scanner)
			filter := alerts.NewFilter(cfg.Filter)
			notifier := alerts.NewNotifier(cfg.Notifier)

			dispatcher := alerts.NewDispatcher(filter, notifier, 128)
			dispatcher.Persist = func(a alerts.Alert) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := db.SaveAlert(ctx, a); err != nil {
					log.Warn().Err(err).Str("alert", a.ID).Msg("Failed to persist alert")
				}
			}
			dispatcher.OnDelivered = func(a alerts.Alert) {
				prom.AlertsDispatched.WithLabelValues(string(a.Severity)).Inc()
			}
			dispatcher.OnSuppressed = func() {
				prom.AlertsSuppressed.Inc()
			}

			flowMonitor := monitor.New(cfg.Monitor, scanner, db, dispatcher, prom)
			server := monitor.NewServer(cfg.Monitor.HTTPAddr, flowMonitor, db, prom)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := flowMonitor.Start(ctx); err != nil {
				return err
			}
			go func() {
				if err := server.Start(); err != nil {
					log.Error().Err(err).Msg("HTTP server failed")
					stop()
				}
			}()

			<-ctx.Done()
			log.Info().Msg("Shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Monitor.ShutdownGracePeriod)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("HTTP shutdown incomplete")
			}
			return flowMonitor.Stop()
		},
	}
}
