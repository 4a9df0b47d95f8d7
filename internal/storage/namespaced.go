// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"strings"
)

const namespaceSeparator = ":"

var _ PersisterInterface = (*namespaced)(nil)

type namespaced struct {
	ns    string
	inner PersisterInterface
}

func (n *namespaced) key(k string) string {
	return n.ns + namespaceSeparator + k
}

func (n *namespaced) Load(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	return n.inner.Load(ctx, n.key(key))
}

func (n *namespaced) Save(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	return n.inner.Save(ctx, n.key(key), value)
}

func (n *namespaced) SaveAll(ctx context.Context, entries map[string][]byte) error {
	prefixed := make(map[string][]byte, len(entries))

	for k, v := range entries {
		if err := validateKey(k); err != nil {
			return err
		}
		prefixed[n.key(k)] = v
	}

	return n.inner.SaveAll(ctx, prefixed)
}

func (n *namespaced) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, 0, len(keys))

	for _, k := range keys {
		prefixed = append(prefixed, n.key(k))
	}

	return n.inner.Delete(ctx, prefixed...)
}

func (n *namespaced) Ping(ctx context.Context) error {
	return n.inner.Ping(ctx)
}

// Namespaced scopes every key of p under ns, so one backend can hold many portal sessions.
// An empty namespace returns p unchanged.
func Namespaced(p PersisterInterface, ns string) PersisterInterface {
	if ns == "" {
		return p
	}

	return &namespaced{ns: ns, inner: p}
}

// splitKey is the inverse of Namespaced for backends that store the namespace separately.
func splitKey(key string) (string, string) {
	ns, k, found := strings.Cut(key, namespaceSeparator)
	if !found {
		return "", key
	}

	return ns, k
}
