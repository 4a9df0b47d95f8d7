// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
)

// HealthCheckerInterface is a dependency whose reachability is reported by the status endpoint.
type HealthCheckerInterface interface {
	Ping(context.Context) error
}
