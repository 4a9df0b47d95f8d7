// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"encoding/json"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	PhoneNumber  string `json:"phone_number" validate:"required"`
	HomeAddress  string `json:"home_address,omitempty"`
	HouseType    string `json:"house_type,omitempty"`
	ResidentType string `json:"resident_type" validate:"required,oneof=tenant landlord/landlady security"`
	Estate       int64  `json:"estate" validate:"gt=0"`
}

type VerifyEmailRequest struct {
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Code  string `json:"code" validate:"required,max=6"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// loginResponse is the backend answer to a successful login.
type loginResponse struct {
	Message string          `json:"message"`
	User    json.RawMessage `json:"user"`
}
