// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/canonical/estate-portal/internal/backend"
	"github.com/canonical/estate-portal/internal/identity"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/tracing"
	"github.com/canonical/estate-portal/pkg/session"
)

const (
	loginPath                = "/api/auth/login/"
	logoutPath               = "/api/auth/logout/"
	registerPath             = "/api/auth/register/"
	verifyEmailPath          = "/api/auth/verify-email/"
	resendVerificationPath   = "/api/auth/resend-verification/"
	requestPasswordResetPath = "/api/auth/request-password-reset/"
	confirmPasswordResetPath = "/api/auth/reset-password-confirm/"
	profilePath              = "/api/resident/profile/"
)

var _ GatewayInterface = (*Gateway)(nil)

type Gateway struct {
	// scope tells sessions apart so concurrent calls are only collapsed within one client
	scope string

	backend backend.ClientInterface
	store   session.StoreInterface

	flight   *singleflight.Group
	validate *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// WithSession returns a gateway acting for another client. Call collapsing is shared.
func (g *Gateway) WithSession(scope string, c backend.ClientInterface, s session.StoreInterface) *Gateway {
	n := *g
	n.scope = scope
	n.backend = c
	n.store = s

	return &n
}

// Login authenticates against the backend and replaces the session identity.
func (g *Gateway) Login(ctx context.Context, email, password string) (identity.Identity, error) {
	ctx, span := g.tracer.Start(ctx, "authentication.Gateway.Login")
	defer span.End()

	req := LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := g.validate.Struct(req); err != nil {
		return identity.Identity{}, g.invalid("login", err)
	}

	v, err, _ := g.flight.Do(g.key("login", req.Email), func() (any, error) {
		return g.login(ctx, req)
	})
	if err != nil {
		g.logger.Security().AuthnFailure(req.Email, Message(err), g.opts()...)
		return identity.Identity{}, err
	}

	i := v.(identity.Identity)
	g.logger.Security().AuthnSuccess(req.Email, g.opts()...)

	return i, nil
}

func (g *Gateway) login(ctx context.Context, req LoginRequest) (identity.Identity, error) {
	if err := g.prime(ctx, "login"); err != nil {
		return identity.Identity{}, err
	}

	var resp loginResponse
	if err := g.backend.Post(ctx, loginPath, req, &resp); err != nil {
		return identity.Identity{}, g.normalize("login", err, LoginFallbackMessage)
	}

	i, err := identity.FromLogin(resp.User)
	if err != nil {
		return identity.Identity{}, g.unsupported("login", err)
	}

	if err := g.store.Set(ctx, i); err != nil {
		g.logger.Errorf("identity not persisted, session will not survive a restart: %v", err)
	}

	return i, nil
}

// Register creates an account. It never authenticates, the backend emails a verification code.
func (g *Gateway) Register(ctx context.Context, req RegisterRequest) error {
	ctx, span := g.tracer.Start(ctx, "authentication.Gateway.Register")
	defer span.End()

	req.Email = strings.TrimSpace(req.Email)
	if err := g.validate.Struct(req); err != nil {
		return g.invalid("register", err)
	}

	_, err, _ := g.flight.Do(g.key("register", req.Email), func() (any, error) {
		return nil, g.post(ctx, "register", registerPath, req, RegisterFallbackMessage)
	})

	return err
}

// Logout tells the backend the session is over. Whatever the outcome, the local
// identity and backend cookies are dropped before returning.
func (g *Gateway) Logout(ctx context.Context) error {
	ctx, span := g.tracer.Start(ctx, "authentication.Gateway.Logout")
	defer span.End()

	_, err, _ := g.flight.Do(g.key("logout", ""), func() (any, error) {
		defer g.forget(context.WithoutCancel(ctx))

		return nil, g.post(ctx, "logout", logoutPath, nil, UnexpectedErrorMessage)
	})

	if err != nil {
		g.logger.Warnf("backend logout failed, local session cleared anyway: %v", err)
	}

	return err
}

func (g *Gateway) forget(ctx context.Context) {
	current, authenticated := g.store.Current()

	if err := g.store.Clear(ctx); err != nil {
		g.logger.Errorf("persisted identity not removed: %v", err)
	}

	if jar := g.backend.Jar(); jar != nil {
		jar.Clear()
	}

	if authenticated {
		g.logger.Security().SessionDestroyed(current.ID, g.opts()...)
	}
}

func (g *Gateway) VerifyEmail(ctx context.Context, req VerifyEmailRequest) error {
	ctx, span := g.tracer.Start(ctx, "authentication.Gateway.VerifyEmail")
	defer span.End()

	req.Email = strings.TrimSpace(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if err := g.validate.Struct(req); err != nil {
		return g.invalid("verify-email", err)
	}

	_, err, _ := g.flight.Do(g.key("verify-email", req.Email), func() (any, error) {
		return nil, g.post(ctx, "verify-email", verifyEmailPath, req, "Verification failed. Please check the code and try again.")
	})

	return err
}

func (g *Gateway) ResendVerification(ctx context.Context, email string) error {
	ctx, span := g.tracer.Start(ctx, "authentication.Gateway.ResendVerification")
	defer span.End()

	req := EmailRequest{Email: strings.TrimSpace(email)}
	if err := g.validate.Struct(req); err != nil {
		return g.invalid("resend-verification", err)
	}

	_, err, _ := g.flight.Do(g.key("resend-verification", req.Email), func() (any, error) {
		return nil, g.post(ctx, "resend-verification", resendVerificationPath, req, "Failed to resend code.")
	})

	return err
}

func (g *Gateway) RequestPasswordReset(ctx context.Context, email string) error {
	ctx, span := g.tracer.Start(ctx, "authentication.Gateway.RequestPasswordReset")
	defer span.End()

	req := EmailRequest{Email: strings.TrimSpace(email)}
	if err := g.validate.Struct(req); err != nil {
		return g.invalid("password-reset", err)
	}

	_, err, _ := g.flight.Do(g.key("password-reset", req.Email), func() (any, error) {
		return nil, g.post(ctx, "password-reset", requestPasswordResetPath, req, "Failed to send reset code.")
	})

	return err
}

func (g *Gateway) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error {
	ctx, span := g.tracer.Start(ctx, "authentication.Gateway.ConfirmPasswordReset")
	defer span.End()

	req.Email = strings.TrimSpace(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if err := g.validate.Struct(req); err != nil {
		return g.invalid("password-reset-confirm", err)
	}

	_, err, _ := g.flight.Do(g.key("password-reset-confirm", req.Email), func() (any, error) {
		return nil, g.post(ctx, "password-reset-confirm", confirmPasswordResetPath, req, "Failed to reset password.")
	})

	return err
}

// Refresh re-reads the profile and replaces the identity wholesale. A rejected session logs out.
func (g *Gateway) Refresh(ctx context.Context) (identity.Identity, error) {
	ctx, span := g.tracer.Start(ctx, "authentication.Gateway.Refresh")
	defer span.End()

	if !g.store.IsAuthenticated() {
		return identity.Identity{}, &AuthError{Action: "refresh", Message: SessionExpiredMessage, Err: ErrNotAuthenticated}
	}

	var raw json.RawMessage
	err := g.backend.Get(ctx, profilePath, &raw)

	if backend.IsUnauthorized(err) {
		_ = g.Logout(ctx)

		var apiErr *backend.APIError
		errors.As(err, &apiErr)

		return identity.Identity{}, &AuthError{Action: "refresh", Status: apiErr.Status, Message: SessionExpiredMessage, Err: errors.Join(ErrSessionExpired, err)}
	}
	if err != nil {
		return identity.Identity{}, g.normalize("refresh", err, "Could not refresh your profile.")
	}

	i, err := identity.FromLogin(raw)
	if err != nil {
		return identity.Identity{}, g.unsupported("refresh", err)
	}

	if err := g.store.Set(ctx, i); err != nil {
		g.logger.Errorf("identity not persisted, session will not survive a restart: %v", err)
	}

	return i, nil
}

func (g *Gateway) post(ctx context.Context, action, path string, in any, fallback string) error {
	if err := g.prime(ctx, action); err != nil {
		return err
	}

	if err := g.backend.Post(ctx, path, in, nil); err != nil {
		return g.normalize(action, err, fallback)
	}

	return nil
}

func (g *Gateway) prime(ctx context.Context, action string) error {
	if err := g.backend.PrimeCSRF(ctx); err != nil {
		g.logger.Warnf("csrf priming failed before %s: %v", action, err)
		return &AuthError{Action: action, Message: "Could not prepare secure session. Please try again.", Err: errors.Join(ErrSecureSession, err)}
	}

	return nil
}

// normalize turns a backend failure into an AuthError with one presentable message.
func (g *Gateway) normalize(action string, err error, fallback string) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = fallback
		}
		return &AuthError{Action: action, Status: apiErr.Status, Message: msg, Err: err}
	}

	g.logger.Errorf("%s request failed: %v", action, err)

	return &AuthError{Action: action, Message: UnexpectedErrorMessage, Err: err}
}

func (g *Gateway) invalid(action string, err error) error {
	return &AuthError{Action: action, Message: validationMessage(err), Err: errors.Join(ErrInvalidInput, err)}
}

func (g *Gateway) unsupported(action string, err error) error {
	g.logger.Warnf("%s returned an unusable user: %v", action, err)
	return &AuthError{Action: action, Message: UnsupportedAccountMessage, Err: err}
}

func (g *Gateway) key(action, email string) string {
	return action + "\x00" + g.scope + "\x00" + strings.ToLower(email)
}

func (g *Gateway) opts() []logging.Option {
	if g.scope == "" {
		return nil
	}

	return []logging.Option{logging.WithSessionID(g.scope)}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json field names, they are what API clients and users see
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	return v
}

func NewGateway(c backend.ClientInterface, store session.StoreInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Gateway {
	g := new(Gateway)

	g.backend = c
	g.store = store

	g.flight = new(singleflight.Group)
	g.validate = newValidator()

	g.tracer = tracer
	g.monitor = monitor
	g.logger = logger

	return g
}
