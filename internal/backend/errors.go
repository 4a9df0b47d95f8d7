// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrCSRFUnavailable = errors.New("csrf token unavailable")

// TransportError means no response was received: connection failure, timeout or cancellation.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status int
	Body   []byte
	// Message is the human readable reason extracted from Body, possibly empty.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
	}

	return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
}

// IsUnauthorized reports whether err is a 401 or 403 answer from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}
