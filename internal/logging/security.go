// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

const (
	authnSuccessEvent     = "authn_login_success"
	authnFailureEvent     = "authn_login_fail"
	authzFailureEvent     = "authz_fail"
	sessionCreatedEvent   = "session_created"
	sessionDestroyedEvent = "session_destroyed"
	systemStartupEvent    = "sys_startup"
	systemShutdownEvent   = "sys_shutdown"
)

// Option attaches extra context to a security event.
type Option func(*[]zap.Field)

// WithRequestID tags the event with the request that triggered it.
func WithRequestID(id string) Option {
	return func(fields *[]zap.Field) {
		if id != "" {
			*fields = append(*fields, zap.String("request_id", id))
		}
	}
}

// WithSessionID tags the event with the portal session it concerns.
func WithSessionID(id string) Option {
	return func(fields *[]zap.Field) {
		if id != "" {
			*fields = append(*fields, zap.String("session_id", id))
		}
	}
}

type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) AuthnSuccess(email string, opts ...Option) {
	s.log(authnSuccessEvent, "login succeeded", []zap.Field{zap.String("email", email)}, opts)
}

func (s *SecurityLogger) AuthnFailure(email, reason string, opts ...Option) {
	s.log(authnFailureEvent, "login failed", []zap.Field{zap.String("email", email), zap.String("reason", reason)}, opts)
}

func (s *SecurityLogger) AuthzFailure(userID, resource string, opts ...Option) {
	s.log(authzFailureEvent, "access denied", []zap.Field{zap.String("user_id", userID), zap.String("resource", resource)}, opts)
}

func (s *SecurityLogger) SessionCreated(userID string, opts ...Option) {
	s.log(sessionCreatedEvent, "session created", []zap.Field{zap.String("user_id", userID)}, opts)
}

func (s *SecurityLogger) SessionDestroyed(userID string, opts ...Option) {
	s.log(sessionDestroyedEvent, "session destroyed", []zap.Field{zap.String("user_id", userID)}, opts)
}

func (s *SecurityLogger) SystemStartup(opts ...Option) {
	s.log(systemStartupEvent, "system started", nil, opts)
}

func (s *SecurityLogger) SystemShutdown(opts ...Option) {
	s.log(systemShutdownEvent, "system shutting down", nil, opts)
}

func (s *SecurityLogger) log(event, msg string, fields []zap.Field, opts []Option) {
	fields = append(fields, zap.String("type", "security"), zap.String("event", event))
	for _, opt := range opts {
		opt(&fields)
	}
	s.l.Info(msg, fields...)
}

func newSecurityLogger(l *zap.Logger) *SecurityLogger {
	return &SecurityLogger{l: l}
}
