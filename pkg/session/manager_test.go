// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"github.com/canonical/estate-portal/internal/identity"
	"github.com/canonical/estate-portal/internal/storage"
)

func newTestManager(ctrl *gomock.Controller, p storage.PersisterInterface) *Manager {
	mockLogger := NewMockLoggerInterface(ctrl)
	mockLogger.EXPECT().Warnf(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any()).AnyTimes()

	return NewManager(p, CookieOptions{Secure: true}, passthroughTracer(ctrl), NewMockMonitorInterface(ctrl), mockLogger)
}

func sessionCookie(t *testing.T, res *http.Response) *http.Cookie {
	t.Helper()

	for _, c := range res.Cookies() {
		if c.Name == CookieName {
			return c
		}
	}

	return nil
}

func TestManager_Middleware(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	p := storage.NewMemoryStore()
	m := newTestManager(ctrl, p)

	existing := uuid.NewString()
	_ = storage.Namespaced(p, existing).Save(ctx, UserKey, []byte(`{"id":"5","role":"admin","subscription_active":true}`))

	testCases := []struct {
		name           string
		cookie         string
		expectedFresh  bool
		expectedAuthed bool
	}{
		{name: "no cookie", expectedFresh: true},
		{name: "malformed cookie", cookie: "../../etc/passwd", expectedFresh: true},
		{name: "unknown session", cookie: uuid.NewString()},
		{name: "known session", cookie: existing, expectedAuthed: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var seen *Session

			h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				s, ok := FromContext(r.Context())
				if !ok {
					t.Fatalf("expected a session in the context")
				}
				seen = s
			}))

			req := httptest.NewRequest(http.MethodGet, "/resident/dashboard", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tc.cookie})
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			c := sessionCookie(t, w.Result())
			if tc.expectedFresh {
				if c == nil || !c.HttpOnly || !c.Secure || c.Value == tc.cookie {
					t.Errorf("expected a new secure session cookie, got %+v", c)
				}
			} else if c != nil {
				t.Errorf("expected the existing cookie to be kept, got %+v", c)
			}

			if seen.Store.IsAuthenticated() != tc.expectedAuthed {
				t.Errorf("expected authenticated %v", tc.expectedAuthed)
			}
			if !seen.Store.Hydrated() {
				t.Errorf("expected the store to be hydrated by the middleware")
			}
		})
	}
}

func TestManager_FlushesCookieJar(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := storage.NewMemoryStore()
	m := newTestManager(ctrl, p)
	id := uuid.NewString()

	h := m.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		s, _ := FromContext(r.Context())
		s.Jar.SetCookies(nil, []*http.Cookie{{Name: "sessionid", Value: "backend-1"}})
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: id})
	h.ServeHTTP(httptest.NewRecorder(), req)

	reloaded := m.open(context.Background(), id)
	if reloaded.Jar.Get("sessionid") != "backend-1" {
		t.Errorf("expected backend cookie to be persisted")
	}
}

func TestManager_RenewAndDestroy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	p := storage.NewMemoryStore()
	m := newTestManager(ctrl, p)

	s := m.open(ctx, uuid.NewString())
	oldID := s.ID

	if err := s.Store.Set(ctx, identity.Identity{ID: "3", Role: identity.RoleResident, SubscriptionActive: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Jar.SetCookies(nil, []*http.Cookie{{Name: "sessionid", Value: "b"}})

	w := httptest.NewRecorder()
	if err := m.Renew(ctx, w, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.ID == oldID {
		t.Fatalf("expected a new session id")
	}
	if c := sessionCookie(t, w.Result()); c == nil || c.Value != s.ID {
		t.Errorf("expected cookie for the renewed session, got %+v", c)
	}
	if _, err := storage.Namespaced(p, oldID).Load(ctx, UserKey); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected the old session state to be removed, got %v", err)
	}

	renewed := m.open(ctx, s.ID)
	if !renewed.Store.IsAuthenticated() || renewed.Jar.Get("sessionid") != "b" {
		t.Errorf("expected identity and cookies to move to the renewed session")
	}

	w = httptest.NewRecorder()
	if err := m.Destroy(ctx, w, renewed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c := sessionCookie(t, w.Result()); c == nil || c.MaxAge >= 0 {
		t.Errorf("expected the browser cookie to be expired, got %+v", c)
	}
	if m.open(ctx, s.ID).Store.IsAuthenticated() {
		t.Errorf("expected the destroyed session to be unauthenticated")
	}
}
