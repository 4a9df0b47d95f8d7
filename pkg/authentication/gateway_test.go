// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/estate-portal/internal/backend"
	"github.com/canonical/estate-portal/internal/identity"
)

//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_backend.go -source=../../internal/backend/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_session.go -source=../session/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

type gatewayMocks struct {
	backend *MockClientInterface
	store   *MockStoreInterface
	logger  *MockLoggerInterface
	audit   *MockSecurityLoggerInterface
}

func newTestGateway(ctrl *gomock.Controller) (*Gateway, gatewayMocks) {
	m := gatewayMocks{
		backend: NewMockClientInterface(ctrl),
		store:   NewMockStoreInterface(ctrl),
		logger:  NewMockLoggerInterface(ctrl),
		audit:   NewMockSecurityLoggerInterface(ctrl),
	}

	mockTracer := NewMockTracingInterface(ctrl)
	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).AnyTimes().
		DoAndReturn(func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		})

	m.logger.EXPECT().Security().AnyTimes().Return(m.audit)
	m.logger.EXPECT().Warnf(gomock.Any(), gomock.Any()).AnyTimes()
	m.logger.EXPECT().Errorf(gomock.Any(), gomock.Any()).AnyTimes()
	m.audit.EXPECT().AuthnSuccess(gomock.Any()).AnyTimes()
	m.audit.EXPECT().AuthnFailure(gomock.Any(), gomock.Any()).AnyTimes()
	m.audit.EXPECT().SessionDestroyed(gomock.Any()).AnyTimes()

	return NewGateway(m.backend, m.store, mockTracer, NewMockMonitorInterface(ctrl), m.logger), m
}

func respondWith(body string) func(context.Context, string, any, any) error {
	return func(_ context.Context, _ string, _ any, out any) error {
		return json.Unmarshal([]byte(body), out)
	}
}

func TestGateway_Login(t *testing.T) {
	apiErr := func(status int, body string) error {
		return &backend.APIError{Status: status, Body: []byte(body), Message: backend.ExtractMessage([]byte(body))}
	}

	testCases := []struct {
		name             string
		email            string
		password         string
		setupMocks       func(gatewayMocks)
		expectedIdentity identity.Identity
		expectedMessage  string
		expectedErr      error
	}{
		{
			name:     "success without subscription flag defaults to active",
			email:    " ada@example.com ",
			password: "secret",
			setupMocks: func(m gatewayMocks) {
				m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(nil)
				m.backend.EXPECT().Post(gomock.Any(), loginPath, LoginRequest{Email: "ada@example.com", Password: "secret"}, gomock.Any()).
					DoAndReturn(respondWith(`{"message": "Login successful", "user": {"id": 7, "first_name": "Ada", "last_name": "Obi", "email": "ada@example.com", "role": "Resident", "estate": 3}}`))
				m.store.EXPECT().Set(gomock.Any(), identity.Identity{ID: "7", DisplayName: "Ada Obi", Email: "ada@example.com", Role: identity.RoleResident, EstateID: "3", SubscriptionActive: true}).Return(nil)
			},
			expectedIdentity: identity.Identity{ID: "7", DisplayName: "Ada Obi", Email: "ada@example.com", Role: identity.RoleResident, EstateID: "3", SubscriptionActive: true},
		},
		{
			name:     "persistence failure does not fail login",
			email:    "admin@example.com",
			password: "secret",
			setupMocks: func(m gatewayMocks) {
				m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(nil)
				m.backend.EXPECT().Post(gomock.Any(), loginPath, gomock.Any(), gomock.Any()).
					DoAndReturn(respondWith(`{"user": {"id": "1", "email": "admin@example.com", "role": "admin", "subscription_active": false}}`))
				m.store.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
			},
			expectedIdentity: identity.Identity{ID: "1", Email: "admin@example.com", Role: identity.RoleAdmin},
		},
		{
			name:     "invalid email is rejected locally",
			email:    "not-an-email",
			password: "secret",
			setupMocks: func(gatewayMocks) {
			},
			expectedMessage: "email: enter a valid email address.",
			expectedErr:     ErrInvalidInput,
		},
		{
			name:     "priming failure stops the action",
			email:    "ada@example.com",
			password: "secret",
			setupMocks: func(m gatewayMocks) {
				m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(backend.ErrCSRFUnavailable)
			},
			expectedMessage: "Could not prepare secure session. Please try again.",
			expectedErr:     ErrSecureSession,
		},
		{
			name:     "backend error message",
			email:    "ada@example.com",
			password: "wrong",
			setupMocks: func(m gatewayMocks) {
				m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(nil)
				m.backend.EXPECT().Post(gomock.Any(), loginPath, gomock.Any(), gomock.Any()).
					Return(apiErr(http.StatusUnauthorized, `{"error": "Invalid credentials"}`))
			},
			expectedMessage: "Invalid credentials",
		},
		{
			name:     "backend error without message falls back",
			email:    "ada@example.com",
			password: "wrong",
			setupMocks: func(m gatewayMocks) {
				m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(nil)
				m.backend.EXPECT().Post(gomock.Any(), loginPath, gomock.Any(), gomock.Any()).
					Return(apiErr(http.StatusBadRequest, `{}`))
			},
			expectedMessage: LoginFallbackMessage,
		},
		{
			name:     "transport error",
			email:    "ada@example.com",
			password: "secret",
			setupMocks: func(m gatewayMocks) {
				m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(nil)
				m.backend.EXPECT().Post(gomock.Any(), loginPath, gomock.Any(), gomock.Any()).
					Return(&backend.TransportError{Method: http.MethodPost, Path: loginPath, Err: context.DeadlineExceeded})
			},
			expectedMessage: UnexpectedErrorMessage,
			expectedErr:     context.DeadlineExceeded,
		},
		{
			name:     "unknown role",
			email:    "ada@example.com",
			password: "secret",
			setupMocks: func(m gatewayMocks) {
				m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(nil)
				m.backend.EXPECT().Post(gomock.Any(), loginPath, gomock.Any(), gomock.Any()).
					DoAndReturn(respondWith(`{"user": {"id": 7, "role": "landlord"}}`))
			},
			expectedMessage: UnsupportedAccountMessage,
			expectedErr:     identity.ErrUnknownRole,
		},
		{
			name:     "missing id",
			email:    "ada@example.com",
			password: "secret",
			setupMocks: func(m gatewayMocks) {
				m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(nil)
				m.backend.EXPECT().Post(gomock.Any(), loginPath, gomock.Any(), gomock.Any()).
					DoAndReturn(respondWith(`{"user": {"role": "admin"}}`))
			},
			expectedMessage: UnsupportedAccountMessage,
			expectedErr:     identity.ErrMissingID,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			g, m := newTestGateway(ctrl)
			tc.setupMocks(m)

			i, err := g.Login(context.Background(), tc.email, tc.password)

			if tc.expectedMessage == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if i != tc.expectedIdentity {
					t.Errorf("expected %+v, got %+v", tc.expectedIdentity, i)
				}
				return
			}

			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthError, got %v", err)
			}
			if authErr.Message != tc.expectedMessage {
				t.Errorf("expected message %q, got %q", tc.expectedMessage, authErr.Message)
			}
			if tc.expectedErr != nil && !errors.Is(err, tc.expectedErr) {
				t.Errorf("expected error to wrap %v, got %v", tc.expectedErr, err)
			}
		})
	}
}

func TestGateway_LogoutAlwaysClears(t *testing.T) {
	testCases := []struct {
		name        string
		primeErr    error
		postErr     error
		expectedErr bool
	}{
		{name: "success"},
		{name: "timeout", postErr: &backend.TransportError{Method: http.MethodPost, Path: logoutPath, Err: context.DeadlineExceeded}, expectedErr: true},
		{name: "server error", postErr: &backend.APIError{Status: http.StatusInternalServerError}, expectedErr: true},
		{name: "priming failure", primeErr: errors.New("connection refused"), expectedErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			g, m := newTestGateway(ctrl)

			jar := backend.NewJar()
			jar.SetCookies(nil, []*http.Cookie{{Name: "sessionid", Value: "s"}, {Name: backend.CSRFCookieName, Value: "t"}})

			m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(tc.primeErr)
			if tc.primeErr == nil {
				m.backend.EXPECT().Post(gomock.Any(), logoutPath, nil, nil).Return(tc.postErr)
			}
			m.backend.EXPECT().Jar().Return(jar)
			m.store.EXPECT().Current().Return(identity.Identity{ID: "7", Role: identity.RoleResident}, true)
			m.store.EXPECT().Clear(gomock.Any()).Return(nil)

			err := g.Logout(context.Background())
			if tc.expectedErr != (err != nil) {
				t.Errorf("unexpected error state: %v", err)
			}

			if jar.Len() != 0 {
				t.Errorf("expected the backend cookie jar to be emptied")
			}
		})
	}
}

func TestGateway_Register(t *testing.T) {
	valid := RegisterRequest{
		Email:        "new@example.com",
		Password:     "longenough",
		FirstName:    "New",
		LastName:     "Resident",
		PhoneNumber:  "+2348000000000",
		ResidentType: "tenant",
		Estate:       2,
	}

	testCases := []struct {
		name            string
		req             func() RegisterRequest
		setupMocks      func(gatewayMocks)
		expectedMessage string
	}{
		{
			name: "success never authenticates",
			req:  func() RegisterRequest { return valid },
			setupMocks: func(m gatewayMocks) {
				m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(nil)
				m.backend.EXPECT().Post(gomock.Any(), registerPath, valid, nil).Return(nil)
			},
		},
		{
			name: "field error from backend",
			req:  func() RegisterRequest { return valid },
			setupMocks: func(m gatewayMocks) {
				body := `{"phone_number": ["Phone number already in use."]}`
				m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(nil)
				m.backend.EXPECT().Post(gomock.Any(), registerPath, gomock.Any(), nil).
					Return(&backend.APIError{Status: http.StatusBadRequest, Body: []byte(body), Message: backend.ExtractMessage([]byte(body))})
			},
			expectedMessage: "phone_number: Phone number already in use.",
		},
		{
			name: "empty error body falls back",
			req:  func() RegisterRequest { return valid },
			setupMocks: func(m gatewayMocks) {
				m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(nil)
				m.backend.EXPECT().Post(gomock.Any(), registerPath, gomock.Any(), nil).
					Return(&backend.APIError{Status: http.StatusBadRequest})
			},
			expectedMessage: RegisterFallbackMessage,
		},
		{
			name: "short password",
			req: func() RegisterRequest {
				r := valid
				r.Password = "short"
				return r
			},
			setupMocks:      func(gatewayMocks) {},
			expectedMessage: "password: must be at least 8 characters.",
		},
		{
			name: "unknown resident type",
			req: func() RegisterRequest {
				r := valid
				r.ResidentType = "admin"
				return r
			},
			setupMocks:      func(gatewayMocks) {},
			expectedMessage: "resident_type: must be one of tenant, landlord/landlady, security.",
		},
		{
			name: "missing estate",
			req: func() RegisterRequest {
				r := valid
				r.Estate = 0
				return r
			},
			setupMocks:      func(gatewayMocks) {},
			expectedMessage: "estate: this field is required.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			g, m := newTestGateway(ctrl)
			tc.setupMocks(m)

			err := g.Register(context.Background(), tc.req())

			if tc.expectedMessage == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			if Message(err) != tc.expectedMessage {
				t.Errorf("expected message %q, got %q", tc.expectedMessage, Message(err))
			}
		})
	}
}

func TestGateway_SupplementaryActions(t *testing.T) {
	testCases := []struct {
		name string
		path string
		in   any
		call func(*Gateway) error
	}{
		{
			name: "verify email",
			path: verifyEmailPath,
			in:   VerifyEmailRequest{Code: "123456"},
			call: func(g *Gateway) error {
				return g.VerifyEmail(context.Background(), VerifyEmailRequest{Code: " 123456 "})
			},
		},
		{
			name: "resend verification",
			path: resendVerificationPath,
			in:   EmailRequest{Email: "ada@example.com"},
			call: func(g *Gateway) error { return g.ResendVerification(context.Background(), "ada@example.com") },
		},
		{
			name: "request password reset",
			path: requestPasswordResetPath,
			in:   EmailRequest{Email: "ada@example.com"},
			call: func(g *Gateway) error { return g.RequestPasswordReset(context.Background(), "ada@example.com") },
		},
		{
			name: "confirm password reset",
			path: confirmPasswordResetPath,
			in:   PasswordResetConfirmRequest{Email: "ada@example.com", Code: "999999", NewPassword: "another-secret"},
			call: func(g *Gateway) error {
				return g.ConfirmPasswordReset(context.Background(), PasswordResetConfirmRequest{Email: "ada@example.com", Code: "999999", NewPassword: "another-secret"})
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			g, m := newTestGateway(ctrl)
			m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(nil)
			m.backend.EXPECT().Post(gomock.Any(), tc.path, tc.in, nil).Return(nil)

			if err := tc.call(g); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGateway_Refresh(t *testing.T) {
	testCases := []struct {
		name        string
		setupMocks  func(gatewayMocks)
		expectedErr error
	}{
		{
			name: "replaces identity",
			setupMocks: func(m gatewayMocks) {
				m.store.EXPECT().IsAuthenticated().Return(true)
				m.backend.EXPECT().Get(gomock.Any(), profilePath, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, out any) error {
						return json.Unmarshal([]byte(`{"id": 7, "role": "resident", "subscription_active": false}`), out)
					})
				m.store.EXPECT().Set(gomock.Any(), identity.Identity{ID: "7", Role: identity.RoleResident}).Return(nil)
			},
		},
		{
			name: "not logged in",
			setupMocks: func(m gatewayMocks) {
				m.store.EXPECT().IsAuthenticated().Return(false)
			},
			expectedErr: ErrNotAuthenticated,
		},
		{
			name: "rejected session logs out",
			setupMocks: func(m gatewayMocks) {
				m.store.EXPECT().IsAuthenticated().Return(true)
				m.backend.EXPECT().Get(gomock.Any(), profilePath, gomock.Any()).Return(&backend.APIError{Status: http.StatusUnauthorized})
				m.backend.EXPECT().PrimeCSRF(gomock.Any()).Return(nil)
				m.backend.EXPECT().Post(gomock.Any(), logoutPath, nil, nil).Return(&backend.APIError{Status: http.StatusForbidden})
				m.backend.EXPECT().Jar().Return(backend.NewJar())
				m.store.EXPECT().Current().Return(identity.Identity{ID: "7"}, true)
				m.store.EXPECT().Clear(gomock.Any()).Return(nil)
			},
			expectedErr: ErrSessionExpired,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			g, m := newTestGateway(ctrl)
			tc.setupMocks(m)

			_, err := g.Refresh(context.Background())

			if tc.expectedErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tc.expectedErr != nil && !errors.Is(err, tc.expectedErr) {
				t.Errorf("expected %v, got %v", tc.expectedErr, err)
			}
		})
	}
}

func TestGateway_CollapsesConcurrentLogins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g, m := newTestGateway(ctrl)

	entered := make(chan struct{})
	release := make(chan struct{})

	m.backend.EXPECT().PrimeCSRF(gomock.Any()).Times(1).Return(nil)
	m.backend.EXPECT().Post(gomock.Any(), loginPath, gomock.Any(), gomock.Any()).Times(1).
		DoAndReturn(func(ctx context.Context, path string, in, out any) error {
			close(entered)
			<-release
			return respondWith(`{"user": {"id": 1, "role": "admin"}}`)(ctx, path, in, out)
		})
	m.store.EXPECT().Set(gomock.Any(), gomock.Any()).Times(1).Return(nil)

	var wg sync.WaitGroup
	results := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, results[0] = g.Login(context.Background(), "admin@example.com", "secret")
	}()

	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, results[1] = g.Login(context.Background(), "ADMIN@example.com", "secret")
	}()

	// give the second submit time to join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range results {
		if err != nil {
			t.Errorf("call %d: unexpected error: %v", i, err)
		}
	}
}

func TestGateway_WithSessionSeparatesScopes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g, _ := newTestGateway(ctrl)
	other := g.WithSession("browser-2", NewMockClientInterface(ctrl), NewMockStoreInterface(ctrl))

	if g.key("login", "a@example.com") == other.key("login", "a@example.com") {
		t.Errorf("expected different sessions to use different collapse keys")
	}
	if other.flight != g.flight {
		t.Errorf("expected the collapse group to be shared")
	}
}
