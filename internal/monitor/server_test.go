package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowradar/flowradar/internal/alerts"
)

func newTestServer(t *testing.T) (*Server, *BackgroundFlowMonitor) {
	t.Helper()
	m := newTestMonitor(t, closedMarketConfig())
	return NewServer(":0", m, m.db, nil), m
}

func TestServer_Health(t *testing.T) {
	srv, m := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, string(m.State()), payload["state"])
	assert.Contains(t, payload, "market_open")
	assert.Contains(t, payload, "database")
}

func TestServer_RecentAlerts(t *testing.T) {
	srv, m := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, m.db.SaveAlert(ctx,
		alerts.New("SPY", "PUT_BLOCK", alerts.SeverityHigh, "title", "message", "")))
	require.NoError(t, m.db.SaveAlert(ctx,
		alerts.New("QQQ", "SWEEP", alerts.SeverityLow, "title", "message", "")))

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts/recent", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Alerts []alerts.Alert `json:"alerts"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 2, payload.Count)

	rec = httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/alerts/recent?min_severity=HIGH&ticker=SPY", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, 1, payload.Count)
	assert.Equal(t, "SPY", payload.Alerts[0].Ticker)
}

func TestServer_RecentAlerts_BadParams(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{
		"/alerts/recent?hours=0",
		"/alerts/recent?hours=abc",
		"/alerts/recent?min_severity=BOGUS",
	} {
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestServer_NoMetricsRouteWithoutRegistry(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
