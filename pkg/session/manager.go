// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/storage"
	"github.com/canonical/estate-portal/internal/tracing"
)

// Manager maps portal session cookies to sessions kept in a shared persister.
type Manager struct {
	persister storage.PersisterInterface
	cookie    CookieOptions

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Load opens the session named by the request cookie. A missing or malformed cookie
// yields a fresh session, reported by the second return value.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, bool) {
	ctx, span := m.tracer.Start(ctx, "session.Manager.Load")
	defer span.End()

	id := cookieID(r)
	if _, err := uuid.Parse(id); err != nil {
		return m.open(ctx, uuid.NewString()), true
	}

	return m.open(ctx, id), false
}

// Renew moves the session to a new id, so an id seen before login is useless afterwards.
func (m *Manager) Renew(ctx context.Context, w http.ResponseWriter, s *Session) error {
	ctx, span := m.tracer.Start(ctx, "session.Manager.Renew")
	defer span.End()

	id := uuid.NewString()
	p := storage.Namespaced(m.persister, id)

	entries := make(map[string][]byte, 2)

	if data, err := s.persister.Load(ctx, UserKey); err == nil {
		entries[UserKey] = data
	}

	if data, err := s.Jar.Snapshot(); err == nil && s.Jar.Len() > 0 {
		entries[CookiesKey] = data
	}

	if len(entries) > 0 {
		if err := p.SaveAll(ctx, entries); err != nil {
			return fmt.Errorf("failed to renew session: %w", err)
		}
	}

	if err := s.persister.Delete(ctx, UserKey, CookiesKey); err != nil {
		m.logger.Warnf("failed to remove state of the previous session: %v", err)
	}

	s.ID = id
	s.persister = p
	s.Store.rebind(p)

	SetCookie(w, id, m.cookie)

	return nil
}

// Destroy removes the session state and expires the browser cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	ctx, span := m.tracer.Start(ctx, "session.Manager.Destroy")
	defer span.End()

	ClearCookie(w, m.cookie)

	return s.Destroy(ctx)
}

// Middleware attaches the request's session to the context and persists cookie
// changes once the handler returns.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, fresh := m.Load(r.Context(), r)
		if fresh {
			SetCookie(w, s.ID, m.cookie)
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))

		if err := s.Flush(r.Context()); err != nil {
			m.logger.Errorf("failed to persist session %s: %v", s.ID, err)
		}
	})
}

func (m *Manager) open(ctx context.Context, id string) *Session {
	return Open(ctx, id, storage.Namespaced(m.persister, id), m.tracer, m.monitor, m.logger)
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.persister.Ping(ctx)
}

func NewManager(p storage.PersisterInterface, cookie CookieOptions, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Manager {
	m := new(Manager)

	m.persister = p
	m.cookie = cookie

	m.tracer = tracer
	m.monitor = monitor
	m.logger = logger

	return m
}
