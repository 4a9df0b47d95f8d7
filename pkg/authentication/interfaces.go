// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/canonical/estate-portal/internal/identity"
)

// GatewayInterface runs the mutating auth actions against the estate backend.
type GatewayInterface interface {
	Login(ctx context.Context, email, password string) (identity.Identity, error)
	Register(ctx context.Context, req RegisterRequest) error
	Logout(ctx context.Context) error
	VerifyEmail(ctx context.Context, req VerifyEmailRequest) error
	ResendVerification(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error
	Refresh(ctx context.Context) (identity.Identity, error)
}
