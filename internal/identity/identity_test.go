// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestFromLogin(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		expected    Identity
		expectedErr error
	}{
		{
			name:    "subscription flag missing defaults to active",
			payload: `{"id": 7, "first_name": "Ada", "last_name": "Obi", "email": "ada@example.com", "role": "ADMIN", "estate": 3}`,
			expected: Identity{
				ID:                 "7",
				DisplayName:        "Ada Obi",
				Email:              "ada@example.com",
				Role:               RoleAdmin,
				EstateID:           "3",
				SubscriptionActive: true,
			},
		},
		{
			name:    "subscription flag null defaults to active",
			payload: `{"id": "u-1", "first_name": "Bo", "last_name": "", "email": "bo@example.com", "role": "resident", "estate": null, "subscription_active": null}`,
			expected: Identity{
				ID:                 "u-1",
				DisplayName:        "Bo",
				Email:              "bo@example.com",
				Role:               RoleResident,
				SubscriptionActive: true,
			},
		},
		{
			name:    "explicit inactive subscription is kept",
			payload: `{"id": 9, "first_name": "Chi", "last_name": "Eze", "email": "chi@example.com", "role": "security", "subscription_active": false}`,
			expected: Identity{
				ID:                 "9",
				DisplayName:        "Chi Eze",
				Email:              "chi@example.com",
				Role:               RoleSecurity,
				SubscriptionActive: false,
			},
		},
		{
			name:        "unknown role",
			payload:     `{"id": 1, "email": "x@example.com", "role": "landlord"}`,
			expectedErr: ErrUnknownRole,
		},
		{
			name:        "missing id",
			payload:     `{"email": "x@example.com", "role": "admin"}`,
			expectedErr: ErrMissingID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromLogin([]byte(tt.payload))

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected error %v, got %v", tt.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestFromLoginMalformed(t *testing.T) {
	if _, err := FromLogin([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestIdentityPersistedShape(t *testing.T) {
	i := Identity{ID: "1", DisplayName: "Ada Obi", Email: "ada@example.com", Role: RoleAdmin, SubscriptionActive: true}

	b, err := json.Marshal(i)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var back Identity
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != i {
		t.Errorf("expected %+v, got %+v", i, back)
	}
	if back.HasEstate() {
		t.Error("expected no estate")
	}
}

func TestIdentityStoredSubscription(t *testing.T) {
	tests := []struct {
		name     string
		stored   string
		expected bool
	}{
		{name: "missing", stored: `{"id": "4", "role": "resident"}`, expected: true},
		{name: "null", stored: `{"id": "4", "role": "resident", "subscription_active": null}`, expected: true},
		{name: "lapsed", stored: `{"id": "4", "role": "resident", "subscription_active": false}`, expected: false},
		{name: "active", stored: `{"id": "4", "role": "resident", "subscription_active": true}`, expected: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var i Identity
			if err := json.Unmarshal([]byte(test.stored), &i); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if i.SubscriptionActive != test.expected {
				t.Errorf("expected subscription active %v, got %v", test.expected, i.SubscriptionActive)
			}
			if i.ID != "4" || i.Role != RoleResident {
				t.Errorf("expected the other fields to decode, got %+v", i)
			}
		})
	}
}

func TestContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := FromContext(ctx); ok {
		t.Error("expected no identity in empty context")
	}

	i := Identity{ID: "1", Role: RoleResident}
	got, ok := FromContext(WithIdentity(ctx, i))
	if !ok || got != i {
		t.Errorf("expected %+v, got %+v (ok=%v)", i, got, ok)
	}
}
