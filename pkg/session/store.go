// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/canonical/estate-portal/internal/identity"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/storage"
	"github.com/canonical/estate-portal/internal/tracing"
)

const (
	// UserKey is where the identity is persisted.
	UserKey = "user"
	// CookiesKey is where the backend cookie jar is persisted.
	CookiesKey = "cookies"
)

var _ StoreInterface = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	current       identity.Identity
	authenticated bool
	hydrated      bool

	persister storage.PersisterInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Hydrate loads the persisted identity. It never writes, so calling it again only
// re-reads storage. Unreadable or malformed data leaves the store unauthenticated.
func (s *Store) Hydrate(ctx context.Context) bool {
	ctx, span := s.tracer.Start(ctx, "session.Store.Hydrate")
	defer span.End()

	var (
		i     identity.Identity
		found bool
	)

	s.mu.RLock()
	p := s.persister
	s.mu.RUnlock()

	data, err := p.Load(ctx, UserKey)

	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		s.logger.Warnf("session storage unavailable, starting unauthenticated: %v", err)
	default:
		if err := json.Unmarshal(data, &i); err != nil {
			s.logger.Warnf("ignoring malformed persisted identity: %v", err)
		} else {
			found = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = identity.Identity{}
	s.authenticated = false
	if found {
		s.current = i
		s.authenticated = true
	}
	s.hydrated = true

	return s.authenticated
}

// Set replaces the identity wholesale. Memory is always updated, the returned
// error only reports that the identity could not be persisted.
func (s *Store) Set(ctx context.Context, i identity.Identity) error {
	ctx, span := s.tracer.Start(ctx, "session.Store.Set")
	defer span.End()

	s.mu.Lock()
	s.current = i
	s.authenticated = true
	s.hydrated = true
	p := s.persister
	s.mu.Unlock()

	data, err := json.Marshal(i)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	if err := p.Save(ctx, UserKey, data); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}

	return nil
}

// Clear drops the identity. Memory is always cleared, the returned error only
// reports that the persisted copy could not be removed.
func (s *Store) Clear(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "session.Store.Clear")
	defer span.End()

	s.mu.Lock()
	s.current = identity.Identity{}
	s.authenticated = false
	s.hydrated = true
	p := s.persister
	s.mu.Unlock()

	if err := p.Delete(ctx, UserKey); err != nil {
		return fmt.Errorf("failed to remove persisted identity: %w", err)
	}

	return nil
}

func (s *Store) Current() (identity.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current, s.authenticated
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.authenticated
}

func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hydrated
}

func (s *Store) rebind(p storage.PersisterInterface) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.persister = p
}

func NewStore(p storage.PersisterInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Store {
	s := new(Store)

	s.persister = p

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
