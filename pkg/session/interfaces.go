// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"

	"github.com/canonical/estate-portal/internal/identity"
)

// StoreInterface is the single source of truth for the current identity of one client.
type StoreInterface interface {
	Hydrate(context.Context) bool
	Set(context.Context, identity.Identity) error
	Clear(context.Context) error
	Current() (identity.Identity, bool)
	IsAuthenticated() bool
	Hydrated() bool
}
