// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body of every error answered by the portal.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Response wraps successful JSON answers.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

func WriteData(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{Status: status, Message: message, Data: data})
}

func WriteError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}

	WriteJSON(w, status, ErrorResponse{Status: status, Message: message})
}
