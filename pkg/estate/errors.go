// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package estate

import (
	"errors"

	"github.com/canonical/estate-portal/internal/backend"
)

var ErrInvalidInput = errors.New("invalid input")

// Message returns text fit for the user: the backend's own reason when it gave one.
func Message(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	var transportErr *backend.TransportError
	if errors.As(err, &transportErr) {
		return "Could not reach the estate service."
	}

	return err.Error()
}
