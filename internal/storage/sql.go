// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/canonical/estate-portal/internal/db"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/tracing"
)

const stateTable = "portal_state"

var _ PersisterInterface = (*SQLStore)(nil)

// SQLStore keeps values in the portal_state table, keyed by (namespace, key).
type SQLStore struct {
	db  db.DBClientInterface
	ttl time.Duration

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "storage.SQLStore.Load")
	defer span.End()

	if err := validateKey(key); err != nil {
		return nil, err
	}

	ns, k := splitKey(key)

	q := s.db.Statement(ctx).
		Select("value").
		From(stateTable).
		Where(sq.Eq{"namespace": ns, "key": k})

	if s.ttl > 0 {
		q = q.Where(sq.Gt{"updated_at": time.Now().Add(-s.ttl)})
	}

	var value []byte
	err := q.QueryRowContext(ctx).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", key, err)
	}

	return value, nil
}

func (s *SQLStore) Save(ctx context.Context, key string, value []byte) error {
	return s.SaveAll(ctx, map[string][]byte{key: value})
}

// SaveAll upserts every entry in a single transaction.
func (s *SQLStore) SaveAll(ctx context.Context, entries map[string][]byte) error {
	ctx, span := s.tracer.Start(ctx, "storage.SQLStore.SaveAll")
	defer span.End()

	for k := range entries {
		if err := validateKey(k); err != nil {
			return err
		}
	}

	return s.db.WithTx(ctx, func(ctx context.Context) error {
		for key, value := range entries {
			ns, k := splitKey(key)

			_, err := s.db.Statement(ctx).
				Insert(stateTable).
				Columns("namespace", "key", "value", "updated_at").
				Values(ns, k, value, sq.Expr("NOW()")).
				Suffix("ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
				ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("failed to save %q: %w", key, err)
			}
		}

		return nil
	})
}

func (s *SQLStore) Delete(ctx context.Context, keys ...string) error {
	ctx, span := s.tracer.Start(ctx, "storage.SQLStore.Delete")
	defer span.End()

	if len(keys) == 0 {
		return nil
	}

	cond := make(sq.Or, 0, len(keys))
	for _, key := range keys {
		ns, k := splitKey(key)
		cond = append(cond, sq.Eq{"namespace": ns, "key": k})
	}

	_, err := s.db.Statement(ctx).
		Delete(stateTable).
		Where(cond).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}

	return nil
}

// Purge removes rows older than the configured TTL and reports how many went.
func (s *SQLStore) Purge(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.SQLStore.Purge")
	defer span.End()

	if s.ttl <= 0 {
		return 0, nil
	}

	res, err := s.db.Statement(ctx).
		Delete(stateTable).
		Where(sq.LtOrEq{"updated_at": time.Now().Add(-s.ttl)}).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired state: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}

	return n, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func NewSQLStore(c db.DBClientInterface, ttl time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *SQLStore {
	s := new(SQLStore)

	s.db = c
	s.ttl = ttl

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}
