// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Messages shown when the backend gives no usable reason.
const (
	LoginFallbackMessage      = "Invalid email or password. Please try again."
	RegisterFallbackMessage   = "Registration failed. Please try again."
	UnexpectedErrorMessage    = "An unexpected error occurred."
	SessionExpiredMessage     = "Your session has expired. Please log in again."
	UnsupportedAccountMessage = "This account cannot use the portal. Please contact your estate administrator."
)

var (
	// ErrSecureSession means the CSRF token could not be primed, so the action was not attempted.
	ErrSecureSession    = errors.New("could not prepare secure session")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("session expired")
)

// AuthError carries one user presentable message for a failed auth action.
type AuthError struct {
	Action string
	// Status is the backend HTTP status, zero when no response was received.
	Status  int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Message returns the user presentable text of err.
func Message(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}

	return UnexpectedErrorMessage
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Please check the submitted fields."
	}

	fe := verrs[0]
	field := fe.Field()

	switch fe.Tag() {
	case "required", "gt":
		return fmt.Sprintf("%s: this field is required.", field)
	case "email":
		return fmt.Sprintf("%s: enter a valid email address.", field)
	case "min":
		return fmt.Sprintf("%s: must be at least %s characters.", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s: must be at most %s characters.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: must be one of %s.", field, strings.Join(strings.Fields(fe.Param()), ", "))
	}

	return fmt.Sprintf("%s: invalid value.", field)
}
