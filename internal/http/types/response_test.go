// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError(t *testing.T) {
	testCases := []struct {
		name            string
		status          int
		message         string
		expectedMessage string
	}{
		{name: "explicit message", status: http.StatusUnauthorized, message: "Invalid email or password. Please try again.", expectedMessage: "Invalid email or password. Please try again."},
		{name: "status text fallback", status: http.StatusTooManyRequests, expectedMessage: "Too Many Requests"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.status, tc.message)

			if w.Code != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected json content type, got %s", ct)
			}

			var body ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Status != tc.status || body.Message != tc.expectedMessage {
				t.Errorf("unexpected body %+v", body)
			}
		})
	}
}

func TestWriteData(t *testing.T) {
	w := httptest.NewRecorder()
	WriteData(w, http.StatusOK, "ok", map[string]string{"role": "admin"})

	var body struct {
		Status  int               `json:"status"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	if body.Status != http.StatusOK || body.Message != "ok" || body.Data["role"] != "admin" {
		t.Errorf("unexpected body %+v", body)
	}
}
