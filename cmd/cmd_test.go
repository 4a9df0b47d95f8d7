// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/canonical/estate-portal/internal/backend"
	"github.com/canonical/estate-portal/pkg/access"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls []string
	// cookie is the Cookie header of the last dues call
	cookie string
}

func (f *fakeBackend) called(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.calls {
		if c == path {
			return true
		}
	}
	return false
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	record := func(r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.calls = append(f.calls, r.URL.Path)
		if r.URL.Path == "/api/dues/" {
			f.cookie = r.Header.Get("Cookie")
		}
	}

	mux.HandleFunc("/api/csrf-cookie/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: backend.CSRFCookieName, Value: "csrf-1", Path: "/"})
	})

	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "backend-session", Path: "/"})
		_, _ = w.Write([]byte(`{"message": "Login successful", "user": {"id": 7, "first_name": "Ada", "last_name": "Obi", "email": "ada@example.com", "role": "resident", "estate": 3}}`))
	})

	mux.HandleFunc("/api/auth/logout/", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_, _ = w.Write([]byte(`{"message": "Logged out"}`))
	})

	mux.HandleFunc("/api/dues/", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_, _ = w.Write([]byte(`[{"id": 1, "title": "Security levy", "amount": "5000.00", "due_date": "2026-11-01"}]`))
	})

	mux.HandleFunc("/api/payments/", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_, _ = w.Write([]byte(`{"count": 0, "results": []}`))
	})

	return mux
}

func run(t *testing.T, url, dir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--backend-url", url, "--state-dir", dir, "--output", "table"}, args...))

	err := rootCmd.Execute()

	return out.String(), err
}

func TestClient_SessionAcrossCommands(t *testing.T) {
	fake := new(fakeBackend)
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	dir := t.TempDir()

	_, err := run(t, srv.URL, dir, "admin", "dues", "list")

	var redirect *redirectError
	if !errors.As(err, &redirect) || redirect.Decision.Location != access.LoginPath {
		t.Fatalf("expected a redirect to the login screen, got %v", err)
	}
	if exitCode(err) != 2 {
		t.Errorf("expected exit code 2 for a redirect, got %d", exitCode(err))
	}
	if fake.called("/api/dues/") {
		t.Errorf("expected the backend not to be called before the gate allows it")
	}

	out, err := run(t, srv.URL, dir, "login", "--email", "ada@example.com", "--password", "secret")
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if !strings.Contains(out, "resident") {
		t.Errorf("expected the signed in identity in the output, got %q", out)
	}

	// a new invocation restores the identity and backend cookies from the state dir
	out, err = run(t, srv.URL, dir, "resident", "dues")
	if err != nil {
		t.Fatalf("expected the resident dues screen to render, got %v", err)
	}
	if !strings.Contains(out, "Security levy") {
		t.Errorf("expected the dues in the output, got %q", out)
	}
	if !strings.Contains(fake.cookie, "sessionid=backend-session") {
		t.Errorf("expected the persisted backend session cookie, got %q", fake.cookie)
	}

	_, err = run(t, srv.URL, dir, "admin", "dues", "list")
	if !errors.As(err, &redirect) || redirect.Decision.Location != "/resident/dashboard" {
		t.Errorf("expected a redirect to the resident home, got %v", err)
	}

	out, err = run(t, srv.URL, dir, "access", "check", "/admin/dues")
	if err != nil || !strings.Contains(out, "redirect_role_home") {
		t.Errorf("expected the gate decision to be printed, got %q %v", out, err)
	}

	if _, err := run(t, srv.URL, dir, "logout"); err != nil {
		t.Fatalf("expected logout to succeed, got %v", err)
	}

	_, err = run(t, srv.URL, dir, "whoami")
	if !errors.As(err, &redirect) {
		t.Errorf("expected whoami to require a session after logout, got %v", err)
	}
}

func TestClient_RequiresBackend(t *testing.T) {
	_, err := run(t, "", t.TempDir(), "estates", "list")
	if err == nil || !strings.Contains(err.Error(), "ESTATE_BACKEND_URL") {
		t.Errorf("expected a missing backend error, got %v", err)
	}
}

func TestRoot_RejectsUnknownOutput(t *testing.T) {
	rootCmd.SetArgs([]string{"--output", "yaml", "version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err == nil {
		t.Errorf("expected an error for an unknown output format")
	}
}
