// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
)

// PersisterInterface is a small durable key/value space holding opaque values.
type PersisterInterface interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	// SaveAll writes every entry or none of them where the backend allows it.
	SaveAll(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}
