// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/canonical/estate-portal/internal/backend"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/storage"
	"github.com/canonical/estate-portal/internal/tracing"
	"github.com/canonical/estate-portal/pkg/access"
	"github.com/canonical/estate-portal/pkg/authentication"
	"github.com/canonical/estate-portal/pkg/session"
	"github.com/canonical/estate-portal/pkg/status"
)

type upstream struct {
	mu      sync.Mutex
	paths   []string
	cookies []string
	csrf    []string
}

func (u *upstream) seen() []string {
	u.mu.Lock()
	defer u.mu.Unlock()

	return append([]string(nil), u.paths...)
}

func (u *upstream) record(r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.cookies = append(u.cookies, r.Header.Get("Cookie"))
	u.csrf = append(u.csrf, r.Header.Get(backend.CSRFHeader))
}

func (u *upstream) last() (string, string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(u.cookies) == 0 {
		return "", ""
	}

	return u.cookies[len(u.cookies)-1], u.csrf[len(u.csrf)-1]
}

func (u *upstream) handler(role string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/csrf-cookie/", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: backend.CSRFCookieName, Value: "csrf-1", Path: "/"})
	})

	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "backend-session", Path: "/"})
		_, _ = w.Write([]byte(`{"message": "Login successful", "user": {"id": 7, "first_name": "Ada", "last_name": "Obi", "email": "ada@example.com", "role": "` + role + `", "estate": 3}}`))
	})

	mux.HandleFunc("/api/estates/", func(w http.ResponseWriter, r *http.Request) {
		u.record(r)
		_, _ = w.Write([]byte(`[{"id": 3, "name": "Palm Court"}]`))
	})

	mux.HandleFunc("/api/dues/", func(w http.ResponseWriter, r *http.Request) {
		u.record(r)
		http.SetCookie(w, &http.Cookie{Name: "tracking", Value: "abc", Path: "/"})
		_, _ = w.Write([]byte(`[]`))
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.paths = append(u.paths, r.URL.Path)
		u.mu.Unlock()

		mux.ServeHTTP(w, r)
	})
}

type testPortal struct {
	server   *httptest.Server
	client   *http.Client
	upstream *upstream
}

func newPortal(t *testing.T, role string) *testPortal {
	t.Helper()

	return newLimitedPortal(t, role, 0, false)
}

func newLimitedPortal(t *testing.T, role string, perSecond float64, trustProxyHeaders bool) *testPortal {
	t.Helper()

	logger := logging.NewNoopLogger()
	monitor := monitoring.NewNoopMonitor("estate-portal", logger)
	tracer := tracing.NewNoopTracer()

	u := new(upstream)
	be := httptest.NewServer(u.handler(role))
	t.Cleanup(be.Close)

	c, err := backend.NewClient(backend.Config{BaseURL: be.URL}, tracer, monitor, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sessions := session.NewManager(storage.NewMemoryStore(), session.CookieOptions{}, tracer, monitor, logger)
	gate := access.NewGate(tracer, monitor, logger)
	gateway := authentication.NewGateway(c, nil, tracer, monitor, logger)
	limiter := authentication.NewRateLimiter(perSecond, 1, logger)

	router := NewRouter(
		authentication.NewAPI(gateway, c, sessions, limiter, tracer, monitor, logger),
		sessions,
		gate,
		NewProxy(c, tracer, monitor, logger),
		NewScreens("", gate, tracer, monitor, logger),
		map[string]status.HealthCheckerInterface{"sessions": sessions},
		[]string{"*"},
		trustProxyHeaders,
		tracer,
		monitor,
		logger,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testPortal{server: srv, client: client, upstream: u}
}

func (p *testPortal) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()

	req, _ := http.NewRequest(method, p.server.URL+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Cleanup(func() { res.Body.Close() })

	return res
}

func (p *testPortal) login(t *testing.T) {
	t.Helper()

	res := p.do(t, http.MethodPost, "/auth/login", `{"email": "ada@example.com", "password": "secret"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected login to succeed, got %d", res.StatusCode)
	}
}

func TestRouter_Status(t *testing.T) {
	p := newPortal(t, "resident")

	for _, path := range []string{"/api/v0/status", "/api/v0/status/deep"} {
		if res := p.do(t, http.MethodGet, path, ""); res.StatusCode != http.StatusOK {
			t.Errorf("expected %s to answer 200, got %d", path, res.StatusCode)
		}
	}
}

func TestRouter_AnonymousAPI(t *testing.T) {
	p := newPortal(t, "resident")

	if res := p.do(t, http.MethodGet, "/api/dues/", ""); res.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for a signed out session, got %d", res.StatusCode)
	}

	if res := p.do(t, http.MethodGet, "/api/estates/", ""); res.StatusCode != http.StatusOK {
		t.Errorf("expected the public estate list to be proxied, got %d", res.StatusCode)
	}

	if res := p.do(t, http.MethodPost, "/api/auth/login/", `{}`); res.StatusCode != http.StatusNotFound {
		t.Errorf("expected backend auth endpoints to be hidden, got %d", res.StatusCode)
	}
}

func TestRouter_ProxyUsesSessionCookies(t *testing.T) {
	p := newPortal(t, "resident")
	p.login(t)

	res := p.do(t, http.MethodGet, "/api/dues/", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected the proxied call to succeed, got %d", res.StatusCode)
	}

	if len(res.Header.Values("Set-Cookie")) != 0 {
		t.Errorf("expected backend cookies to stay in the session, got %v", res.Header.Values("Set-Cookie"))
	}

	cookies, _ := p.upstream.last()
	if !strings.Contains(cookies, "sessionid=backend-session") {
		t.Errorf("expected the backend session cookie to be forwarded, got %q", cookies)
	}
	if strings.Contains(cookies, session.CookieName) {
		t.Errorf("expected the portal cookie to be withheld, got %q", cookies)
	}

	// the cookie set by the previous answer is now part of the session jar
	p.do(t, http.MethodPost, "/api/dues/", `{}`)

	cookies, csrf := p.upstream.last()
	if !strings.Contains(cookies, "tracking=abc") {
		t.Errorf("expected cookies received through the proxy to be kept, got %q", cookies)
	}
	if csrf != "csrf-1" {
		t.Errorf("expected the csrf token on a mutating call, got %q", csrf)
	}
}

func TestRouter_RejectsDotSegments(t *testing.T) {
	p := newPortal(t, "resident")
	p.login(t)

	for _, path := range []string{"/api/subscription/../dues/", "/api/estates/../dues/", "/api/estates/%2e%2e/"} {
		if res := p.do(t, http.MethodGet, path, ""); res.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 for %s, got %d", path, res.StatusCode)
		}
	}

	for _, path := range p.upstream.seen() {
		if strings.Contains(path, "..") {
			t.Errorf("expected the backend to never see dot segments, got %s", path)
		}
	}
}

func TestRouter_RateLimitsPerForwardedClient(t *testing.T) {
	testCases := []struct {
		name              string
		trustProxyHeaders bool
		expectedStatus    int
	}{
		{name: "forwarded address trusted", trustProxyHeaders: true, expectedStatus: http.StatusOK},
		{name: "forwarded address ignored", trustProxyHeaders: false, expectedStatus: http.StatusTooManyRequests},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			p := newLimitedPortal(t, "resident", 0.001, test.trustProxyHeaders)

			var last *http.Response
			for _, client := range []string{"203.0.113.10", "203.0.113.11"} {
				req, _ := http.NewRequest(http.MethodPost, p.server.URL+"/auth/login", strings.NewReader(`{"email": "ada@example.com", "password": "secret"}`))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("X-Forwarded-For", client)

				res, err := p.client.Do(req)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				res.Body.Close()

				last = res
			}

			if last.StatusCode != test.expectedStatus {
				t.Errorf("expected the second client to get %d, got %d", test.expectedStatus, last.StatusCode)
			}
		})
	}
}

func TestRouter_Screens(t *testing.T) {
	testCases := []struct {
		name             string
		role             string
		login            bool
		path             string
		expectedStatus   int
		expectedLocation string
	}{
		{
			name:             "signed out",
			role:             "resident",
			path:             "/admin/dashboard",
			expectedStatus:   http.StatusFound,
			expectedLocation: access.LoginPath,
		},
		{
			name:             "wrong role",
			role:             "resident",
			login:            true,
			path:             "/admin/dues",
			expectedStatus:   http.StatusFound,
			expectedLocation: "/resident/dashboard",
		},
		{
			name:             "guest screen when signed in",
			role:             "security",
			login:            true,
			path:             "/login",
			expectedStatus:   http.StatusFound,
			expectedLocation: access.SecurityFallbackPath,
		},
		{
			name:           "public",
			role:           "resident",
			path:           "/pricing",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "allowed",
			role:           "admin",
			login:          true,
			path:           "/admin/estates/3/leadership",
			expectedStatus: http.StatusOK,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			p := newPortal(t, test.role)
			if test.login {
				p.login(t)
			}

			res := p.do(t, http.MethodGet, test.path, "")

			if res.StatusCode != test.expectedStatus {
				t.Fatalf("expected status %d, got %d", test.expectedStatus, res.StatusCode)
			}

			if loc := res.Header.Get("Location"); loc != test.expectedLocation {
				t.Errorf("expected location %q, got %q", test.expectedLocation, loc)
			}

			if res.StatusCode != http.StatusOK {
				return
			}

			body, _ := io.ReadAll(res.Body)

			var r struct {
				Data ScreenDescriptor `json:"data"`
			}
			if err := json.Unmarshal(body, &r); err != nil {
				t.Fatalf("failed to decode screen descriptor: %v", err)
			}

			if r.Data.Path != test.path {
				t.Errorf("expected path %s, got %s", test.path, r.Data.Path)
			}
			if test.login && r.Data.User == nil {
				t.Errorf("expected the signed in user in the descriptor")
			}
		})
	}
}
