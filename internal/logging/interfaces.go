// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

type LoggerInterface interface {
	Errorf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Debugf(string, ...interface{})
	Fatalf(string, ...interface{})
	Error(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Debug(...interface{})
	Fatal(...interface{})
	Security() SecurityLoggerInterface
	Sync() error
}

// SecurityLoggerInterface emits audit events that must survive log level filtering.
type SecurityLoggerInterface interface {
	AuthnSuccess(email string, opts ...Option)
	AuthnFailure(email, reason string, opts ...Option)
	AuthzFailure(userID, resource string, opts ...Option)
	SessionCreated(userID string, opts ...Option)
	SessionDestroyed(userID string, opts ...Option)
	SystemStartup(opts ...Option)
	SystemShutdown(opts ...Option)
}
