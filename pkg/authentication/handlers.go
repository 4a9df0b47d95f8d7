// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/estate-portal/internal/backend"
	"github.com/canonical/estate-portal/internal/http/types"
	"github.com/canonical/estate-portal/internal/identity"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/tracing"
	"github.com/canonical/estate-portal/pkg/session"
)

const maxRequestBody = 1 << 16

// SessionView is what the browser learns about its own session.
type SessionView struct {
	Authenticated bool               `json:"authenticated"`
	User          *identity.Identity `json:"user,omitempty"`
}

// API exposes the gateway to browsers, one portal session per cookie.
type API struct {
	gateway  *Gateway
	backend  *backend.Client
	sessions *session.Manager
	limiter  *RateLimiter

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/auth/session", a.session)

	mux.Group(func(r chi.Router) {
		r.Use(a.limiter.Middleware)

		r.Post("/auth/login", a.login)
		r.Post("/auth/logout", a.logout)
		r.Post("/auth/register", a.register)
		r.Post("/auth/verify-email", a.verifyEmail)
		r.Post("/auth/resend-verification", a.resendVerification)
		r.Post("/auth/password-reset", a.requestPasswordReset)
		r.Post("/auth/password-reset/confirm", a.confirmPasswordReset)
		r.Post("/auth/refresh", a.refresh)
	})
}

func (a *API) session(w http.ResponseWriter, r *http.Request) {
	s, ok := a.current(w, r)
	if !ok {
		return
	}

	types.WriteData(w, http.StatusOK, "", view(s.Store))
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "authentication.API.login")
	defer span.End()

	s, ok := a.current(w, r)
	if !ok {
		return
	}

	var req LoginRequest
	if !a.decode(w, r, &req) {
		return
	}

	i, err := a.gatewayFor(s).Login(ctx, req.Email, req.Password)
	if err != nil {
		a.writeAuthError(w, err)
		return
	}

	if err := a.sessions.Renew(ctx, w, s); err != nil {
		a.logger.Errorf("failed to renew session after login: %v", err)
	}
	a.logger.Security().SessionCreated(i.ID, logging.WithSessionID(s.ID))

	types.WriteData(w, http.StatusOK, "Login successful", view(s.Store))
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "authentication.API.logout")
	defer span.End()

	s, ok := a.current(w, r)
	if !ok {
		return
	}

	// the backend outcome is only reported, the portal session always ends
	if err := a.gatewayFor(s).Logout(ctx); err != nil {
		a.logger.Debugf("backend logout failed: %v", err)
	}

	if err := a.sessions.Destroy(ctx, w, s); err != nil {
		a.logger.Errorf("failed to destroy session %s: %v", s.ID, err)
	}

	types.WriteData(w, http.StatusOK, "Logged out", SessionView{})
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "authentication.API.register")
	defer span.End()

	s, ok := a.current(w, r)
	if !ok {
		return
	}

	var req RegisterRequest
	if !a.decode(w, r, &req) {
		return
	}

	if err := a.gatewayFor(s).Register(ctx, req); err != nil {
		a.writeAuthError(w, err)
		return
	}

	types.WriteData(w, http.StatusCreated, "Registration successful. Please check your email for a verification code.", nil)
}

func (a *API) verifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "authentication.API.verifyEmail")
	defer span.End()

	s, ok := a.current(w, r)
	if !ok {
		return
	}

	var req VerifyEmailRequest
	if !a.decode(w, r, &req) {
		return
	}

	if err := a.gatewayFor(s).VerifyEmail(ctx, req); err != nil {
		a.writeAuthError(w, err)
		return
	}

	types.WriteData(w, http.StatusOK, "Email verified. You can now log in.", nil)
}

func (a *API) resendVerification(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "authentication.API.resendVerification")
	defer span.End()

	s, ok := a.current(w, r)
	if !ok {
		return
	}

	var req EmailRequest
	if !a.decode(w, r, &req) {
		return
	}

	if err := a.gatewayFor(s).ResendVerification(ctx, req.Email); err != nil {
		a.writeAuthError(w, err)
		return
	}

	types.WriteData(w, http.StatusOK, "A new verification code has been sent to your email.", nil)
}

func (a *API) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "authentication.API.requestPasswordReset")
	defer span.End()

	s, ok := a.current(w, r)
	if !ok {
		return
	}

	var req EmailRequest
	if !a.decode(w, r, &req) {
		return
	}

	if err := a.gatewayFor(s).RequestPasswordReset(ctx, req.Email); err != nil {
		a.writeAuthError(w, err)
		return
	}

	types.WriteData(w, http.StatusOK, "If this email exists, a reset code will be sent.", nil)
}

func (a *API) confirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "authentication.API.confirmPasswordReset")
	defer span.End()

	s, ok := a.current(w, r)
	if !ok {
		return
	}

	var req PasswordResetConfirmRequest
	if !a.decode(w, r, &req) {
		return
	}

	if err := a.gatewayFor(s).ConfirmPasswordReset(ctx, req); err != nil {
		a.writeAuthError(w, err)
		return
	}

	types.WriteData(w, http.StatusOK, "Password reset successful.", nil)
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "authentication.API.refresh")
	defer span.End()

	s, ok := a.current(w, r)
	if !ok {
		return
	}

	if _, err := a.gatewayFor(s).Refresh(ctx); err != nil {
		a.writeAuthError(w, err)
		return
	}

	types.WriteData(w, http.StatusOK, "", view(s.Store))
}

func (a *API) gatewayFor(s *session.Session) *Gateway {
	return a.gateway.WithSession(s.ID, a.backend.WithJar(s.Jar), s.Store)
}

func (a *API) current(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		a.logger.Error("auth endpoint reached without a portal session")
		types.WriteError(w, http.StatusInternalServerError, UnexpectedErrorMessage)
		return nil, false
	}

	return s, true
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		types.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	return true
}

func (a *API) writeAuthError(w http.ResponseWriter, err error) {
	types.WriteError(w, statusOf(err), Message(err))
}

// statusOf maps an auth failure to the status answered to the browser.
func statusOf(err error) int {
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		return http.StatusInternalServerError
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrSecureSession):
		return http.StatusBadGateway
	case errors.Is(err, identity.ErrUnknownRole), errors.Is(err, identity.ErrMissingID):
		return http.StatusForbidden
	case authErr.Status >= 400 && authErr.Status < 500:
		return authErr.Status
	}

	return http.StatusBadGateway
}

func view(s session.StoreInterface) SessionView {
	i, ok := s.Current()
	if !ok {
		return SessionView{}
	}

	return SessionView{Authenticated: true, User: &i}
}

func NewAPI(gateway *Gateway, c *backend.Client, sessions *session.Manager, limiter *RateLimiter, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.gateway = gateway
	a.backend = c
	a.sessions = sessions
	a.limiter = limiter

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
