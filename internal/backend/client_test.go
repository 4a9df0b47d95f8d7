// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"
)

//go:generate mockgen -build_flags=--mod=mod -package backend -destination ./mock_logger.go -source=../logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package backend -destination ./mock_monitor.go -source=../monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package backend -destination ./mock_tracing.go -source=../tracing/interfaces.go

func newTestClient(t *testing.T, ctrl *gomock.Controller, baseURL string, timeout time.Duration) *Client {
	t.Helper()

	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).AnyTimes().
		DoAndReturn(func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		})
	mockMonitor.EXPECT().SetDependencyAvailability(gomock.Any(), gomock.Any()).AnyTimes().Return(nil)
	mockMonitor.EXPECT().SetResponseTimeMetric(gomock.Any(), gomock.Any()).AnyTimes().Return(nil)
	mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warnf(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()

	c, err := NewClient(Config{BaseURL: baseURL, Timeout: timeout}, mockTracer, mockMonitor, mockLogger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return c
}

func csrfHandler(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: "token-1", Path: "/"})
	w.WriteHeader(http.StatusOK)
}

func TestNewClient_InvalidURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	for _, u := range []string{"", "estate.example.com", "ftp://estate.example.com", "http://"} {
		if _, err := NewClient(Config{BaseURL: u}, NewMockTracingInterface(ctrl), NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl)); err == nil {
			t.Errorf("expected an error for %q", u)
		}
	}
}

func TestClient_PrimeCSRF(t *testing.T) {
	testCases := []struct {
		name        string
		handler     http.HandlerFunc
		expectedErr func(error) bool
	}{
		{
			name:        "cookie set",
			handler:     csrfHandler,
			expectedErr: func(err error) bool { return err == nil },
		},
		{
			name:        "no cookie",
			handler:     func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) },
			expectedErr: func(err error) bool { return errors.Is(err, ErrCSRFUnavailable) },
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			expectedErr: func(err error) bool {
				var apiErr *APIError
				return errors.As(err, &apiErr) && apiErr.Status == http.StatusInternalServerError
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mux := http.NewServeMux()
			mux.HandleFunc("/api/csrf-cookie/", tc.handler)
			srv := httptest.NewServer(mux)
			defer srv.Close()

			c := newTestClient(t, ctrl, srv.URL, time.Second)

			if err := c.PrimeCSRF(context.Background()); !tc.expectedErr(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestClient_PostSendsCSRFHeaders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var srvURL string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/csrf-cookie/", csrfHandler)
	mux.HandleFunc("/api/alerts/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(CSRFHeader) != "token-1" {
			t.Errorf("expected csrf header, got %q", r.Header.Get(CSRFHeader))
		}
		if r.Header.Get("Origin") != srvURL {
			t.Errorf("expected origin %s, got %s", srvURL, r.Header.Get("Origin"))
		}
		if r.Header.Get("Referer") != srvURL+"/" {
			t.Errorf("expected referer %s/, got %s", srvURL, r.Header.Get("Referer"))
		}

		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["message"]})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	c := newTestClient(t, ctrl, srv.URL, time.Second)

	var out map[string]string
	if err := c.Post(context.Background(), "/api/alerts/", map[string]string{"message": "gate closed"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out["echo"] != "gate closed" {
		t.Errorf("expected echoed body, got %v", out)
	}
}

func TestClient_CSRFRetry(t *testing.T) {
	testCases := []struct {
		name             string
		rejections       int32
		expectedAttempts int32
		expectedErr      bool
	}{
		{name: "retries once then succeeds", rejections: 1, expectedAttempts: 2},
		{name: "gives up after one retry", rejections: 5, expectedAttempts: 2, expectedErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			var attempts, primes atomic.Int32

			mux := http.NewServeMux()
			mux.HandleFunc("/api/csrf-cookie/", func(w http.ResponseWriter, r *http.Request) {
				primes.Add(1)
				csrfHandler(w, r)
			})
			mux.HandleFunc("/api/dues/", func(w http.ResponseWriter, _ *http.Request) {
				if attempts.Add(1) <= tc.rejections {
					w.WriteHeader(http.StatusForbidden)
					_, _ = w.Write([]byte(`{"detail": "CSRF Failed: CSRF token missing."}`))
					return
				}
				w.WriteHeader(http.StatusCreated)
			})

			srv := httptest.NewServer(mux)
			defer srv.Close()

			c := newTestClient(t, ctrl, srv.URL, time.Second)
			err := c.Post(context.Background(), "/api/dues/", map[string]int{"amount": 100}, nil)

			if tc.expectedErr != (err != nil) {
				t.Errorf("unexpected error state: %v", err)
			}
			if attempts.Load() != tc.expectedAttempts {
				t.Errorf("expected %d attempts, got %d", tc.expectedAttempts, attempts.Load())
			}
			if primes.Load() != 2 {
				t.Errorf("expected the token to be primed before the first attempt and the retry, got %d", primes.Load())
			}
		})
	}
}

func TestClient_NonCSRFForbiddenIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var attempts atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/csrf-cookie/", csrfHandler)
	mux.HandleFunc("/api/residents/1/approve/", func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "You do not have permission to perform this action."}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, ctrl, srv.URL, time.Second)
	err := c.Post(context.Background(), "/api/residents/1/approve/", nil, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "You do not have permission to perform this action." {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
	if !IsUnauthorized(err) {
		t.Errorf("expected 403 to count as unauthorized")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", attempts.Load())
	}
}

func TestClient_TransportErrors(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		c := newTestClient(t, ctrl, srv.URL, 50*time.Millisecond)
		err := c.Get(context.Background(), "/api/estates/", nil)

		var tErr *TransportError
		if !errors.As(err, &tErr) {
			t.Fatalf("expected TransportError, got %v", err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := newTestClient(t, ctrl, url, time.Second)

		var tErr *TransportError
		if err := c.Get(context.Background(), "/api/estates/", nil); !errors.As(err, &tErr) {
			t.Errorf("expected TransportError, got %v", err)
		}
	})
}

func TestGetList(t *testing.T) {
	type item struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	}

	testCases := []struct {
		name     string
		body     string
		expected int
	}{
		{name: "bare array", body: `[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]`, expected: 2},
		{name: "page", body: `{"count": 3, "next": null, "results": [{"id": 1}, {"id": 2}, {"id": 3}]}`, expected: 3},
		{name: "empty page", body: `{"count": 0, "results": []}`, expected: 0},
		{name: "null", body: `null`, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			items, err := GetList[item](context.Background(), newTestClient(t, ctrl, srv.URL, time.Second), "/api/estates/")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if items == nil || len(items) != tc.expected {
				t.Errorf("expected %d items, got %v", tc.expected, items)
			}
		})
	}
}

func TestRouteOf(t *testing.T) {
	if got := routeOf("/api/residents/12/approve/?page=2"); got != "/api/residents/{id}/approve/" {
		t.Errorf("unexpected route %q", got)
	}
}
