// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDebugLogger(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("DEBUG")
	}()
}

func TestInvalidLevel(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("invalid")
	}()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{" INFO ", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"nonsense", zapcore.ErrorLevel},
		{"", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSecurityLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := newSecurityLogger(zap.New(core))

	s.AuthnFailure("jane@example.com", "invalid credentials", WithRequestID("req-1"), WithSessionID(""))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["type"] != "security" {
		t.Errorf("expected type security, got %v", fields["type"])
	}
	if fields["event"] != authnFailureEvent {
		t.Errorf("expected event %s, got %v", authnFailureEvent, fields["event"])
	}
	if fields["request_id"] != "req-1" {
		t.Errorf("expected request_id req-1, got %v", fields["request_id"])
	}
	if _, ok := fields["session_id"]; ok {
		t.Error("empty session id should not be attached")
	}
}
