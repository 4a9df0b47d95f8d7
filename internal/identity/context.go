// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import "context"

type contextKey struct{}

var identityContextKey = contextKey{}

// WithIdentity returns a new context carrying the given identity.
func WithIdentity(ctx context.Context, i Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, i)
}

// FromContext retrieves the identity from the context.
func FromContext(ctx context.Context) (Identity, bool) {
	i, ok := ctx.Value(identityContextKey).(Identity)
	return i, ok
}
