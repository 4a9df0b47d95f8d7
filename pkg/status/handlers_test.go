// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"
)

//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_status.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func TestStatus(t *testing.T) {
	testCases := []struct {
		name           string
		path           string
		persisterErr   error
		expectPing     bool
		expectedStatus int
		expectedState  string
		expectedChecks int
	}{
		{
			name:           "alive does not touch dependencies",
			path:           "/api/v0/status",
			expectedStatus: http.StatusOK,
			expectedState:  "ok",
		},
		{
			name:           "deep with a healthy persister",
			path:           "/api/v0/status/deep",
			expectPing:     true,
			expectedStatus: http.StatusOK,
			expectedState:  "ok",
			expectedChecks: 1,
		},
		{
			name:           "deep with a failing persister",
			path:           "/api/v0/status/deep",
			persisterErr:   errors.New("connection refused"),
			expectPing:     true,
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "degraded",
			expectedChecks: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTracer := NewMockTracingInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockChecker := NewMockHealthCheckerInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).AnyTimes().
				DoAndReturn(func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
					return ctx, trace.SpanFromContext(ctx)
				})

			if tc.expectPing {
				mockChecker.EXPECT().Ping(gomock.Any()).Times(1).Return(tc.persisterErr)
			}
			if tc.persisterErr != nil {
				mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any()).Times(1)
			}

			mux := chi.NewMux()
			NewAPI(map[string]HealthCheckerInterface{"sessions": mockChecker}, mockTracer, NewMockMonitorInterface(ctrl), mockLogger).RegisterEndpoints(mux)

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if w.Code != tc.expectedStatus {
				t.Fatalf("expected %d, got %d", tc.expectedStatus, w.Code)
			}

			var s Status
			if err := json.NewDecoder(w.Body).Decode(&s); err != nil {
				t.Fatalf("failed to decode status: %v", err)
			}

			if s.Status != tc.expectedState {
				t.Errorf("expected %q, got %q", tc.expectedState, s.Status)
			}
			if len(s.Checks) != tc.expectedChecks {
				t.Errorf("expected %d checks, got %d", tc.expectedChecks, len(s.Checks))
			}
			if s.BuildInfo == nil || s.BuildInfo.Name != "estate-portal" {
				t.Errorf("expected build info, got %+v", s.BuildInfo)
			}
		})
	}
}
