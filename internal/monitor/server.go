package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/flowradar/flowradar/internal/alerts"
	"github.com/flowradar/flowradar/internal/metrics"
	"github.com/flowradar/flowradar/internal/storage"
)

// Server exposes the monitor's operational endpoints: health, recent
// alerts and Prometheus metrics.
type Server struct {
	server  *http.Server
	monitor *BackgroundFlowMonitor
	db      *storage.FlowDatabase
}

// NewServer builds the HTTP surface on addr.
func NewServer(addr string, m *BackgroundFlowMonitor, db *storage.FlowDatabase, prom *metrics.Metrics) *Server {
	s := &Server{monitor: m, db: db}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/alerts/recent", s.handleRecentAlerts).Methods(http.MethodGet)
	if prom != nil {
		router.Handle("/metrics", promhttp.HandlerFor(prom.Registry(), promhttp.HandlerOpts{}))
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.DatabaseStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	payload := map[string]interface{}{
		"state":       s.monitor.State(),
		"market_open": MarketOpen(time.Now()),
		"last_scan":   s.monitor.LastScan(),
		"database":    stats,
	}
	writeJSON(w, payload)
}

func (s *Server) handleRecentAlerts(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "hours must be a positive integer", http.StatusBadRequest)
			return
		}
		hours = parsed
	}
	ticker := r.URL.Query().Get("ticker")

	minSeverity := alerts.SeverityLow
	if raw := r.URL.Query().Get("min_severity"); raw != "" {
		minSeverity = alerts.Severity(raw)
		if minSeverity.Rank() == 0 {
			http.Error(w, "unknown severity", http.StatusBadRequest)
			return
		}
	}

	recent, err := s.db.RecentAlerts(r.Context(), ticker, hours, minSeverity)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"alerts": recent, "count": len(recent)})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Debug().Err(err).Msg("Failed to encode response")
	}
}
