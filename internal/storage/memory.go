// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"sync"
)

var _ PersisterInterface = (*MemoryStore)(nil)

// MemoryStore keeps values in process memory, nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}

	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Save(ctx context.Context, key string, value []byte) error {
	return m.SaveAll(ctx, map[string][]byte{key: value})
}

func (m *MemoryStore) SaveAll(_ context.Context, entries map[string][]byte) error {
	for k := range entries {
		if err := validateKey(k); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range entries {
		m.values[k] = append([]byte(nil), v...)
	}

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.values, k)
	}

	return nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func NewMemoryStore() *MemoryStore {
	m := new(MemoryStore)
	m.values = make(map[string][]byte)

	return m
}
