// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/estate-portal/internal/backend"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/storage"
	"github.com/canonical/estate-portal/internal/tracing"
)

// Session bundles the identity store and backend cookie jar of one client.
// The terminal client has exactly one, the web portal one per browser.
type Session struct {
	ID    string
	Store *Store
	Jar   *backend.Jar

	persister storage.PersisterInterface
	logger    logging.LoggerInterface
}

// Flush persists the cookie jar when it changed since it was loaded.
func (s *Session) Flush(ctx context.Context) error {
	if !s.Jar.Changed() {
		return nil
	}

	if s.Jar.Len() == 0 {
		if err := s.persister.Delete(ctx, CookiesKey); err != nil {
			return fmt.Errorf("failed to remove persisted cookies: %w", err)
		}
		// nothing left to snapshot, reset the change flag
		_, _ = s.Jar.Snapshot()
		return nil
	}

	data, err := s.Jar.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	if err := s.persister.Save(ctx, CookiesKey, data); err != nil {
		return fmt.Errorf("failed to persist cookies: %w", err)
	}

	return nil
}

// Destroy removes everything persisted for the session and empties it in memory.
func (s *Session) Destroy(ctx context.Context) error {
	s.Jar.Clear()

	storeErr := s.Store.Clear(ctx)
	if err := s.persister.Delete(ctx, CookiesKey); err != nil {
		return errors.Join(storeErr, fmt.Errorf("failed to remove persisted cookies: %w", err))
	}

	// the jar is now in sync with storage
	_, _ = s.Jar.Snapshot()

	return storeErr
}

// Open restores a session from p: the identity is hydrated and the cookie jar restored.
// Storage problems are logged and yield an empty session.
func Open(ctx context.Context, id string, p storage.PersisterInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Session {
	ctx, span := tracer.Start(ctx, "session.Open")
	defer span.End()

	s := new(Session)

	s.ID = id
	s.persister = p
	s.logger = logger
	s.Store = NewStore(p, tracer, monitor, logger)
	s.Jar = backend.NewJar()

	s.Store.Hydrate(ctx)

	data, err := p.Load(ctx, CookiesKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		logger.Warnf("failed to load persisted cookies: %v", err)
	default:
		if err := s.Jar.Restore(data); err != nil {
			logger.Warnf("ignoring malformed persisted cookies: %v", err)
		}
	}

	return s
}
