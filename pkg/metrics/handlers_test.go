// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring/prometheus"
)

func TestMetricsEndpoint(t *testing.T) {
	logger := logging.NewNoopLogger()
	monitor := prometheus.NewMonitor("estate-portal-metrics-test", logger)

	if err := monitor.IncGateDecision(map[string]string{"outcome": "render"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mux := chi.NewMux()
	NewAPI(logger).RegisterEndpoints(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/metrics", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body, _ := io.ReadAll(w.Result().Body)
	if !strings.Contains(string(body), "access_gate_decisions_total") {
		t.Errorf("expected the gate decision counter to be exported")
	}
}
