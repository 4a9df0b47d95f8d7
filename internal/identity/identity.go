// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingID is returned when the backend user payload carries no usable id.
var ErrMissingID = errors.New("user payload has no id")

// Identity is the authenticated user as seen by the portal.
type Identity struct {
	ID                 string `json:"id"`
	DisplayName        string `json:"name"`
	Email              string `json:"email"`
	Role               Role   `json:"role"`
	EstateID           string `json:"estateId,omitempty"`
	SubscriptionActive bool   `json:"subscription_active"`
}

// HasEstate reports whether the identity is assigned to an estate.
func (i Identity) HasEstate() bool {
	return i.EstateID != ""
}

// UnmarshalJSON decodes a persisted identity. A missing subscription_active means active.
func (i *Identity) UnmarshalJSON(data []byte) error {
	type plain Identity

	var stored struct {
		plain
		SubscriptionActive *bool `json:"subscription_active"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}

	*i = Identity(stored.plain)
	i.SubscriptionActive = stored.SubscriptionActive == nil || *stored.SubscriptionActive

	return nil
}

// loginUser mirrors the backend's serialized user object.
type loginUser struct {
	ID                 json.RawMessage `json:"id"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	Email              string          `json:"email"`
	Role               string          `json:"role"`
	Estate             json.RawMessage `json:"estate"`
	SubscriptionActive *bool           `json:"subscription_active"`
}

// FromLogin builds an Identity from the backend user object returned by login or
// profile endpoints. A missing subscription_active is treated as active.
func FromLogin(payload []byte) (Identity, error) {
	var u loginUser
	if err := json.Unmarshal(payload, &u); err != nil {
		return Identity{}, fmt.Errorf("failed to decode user payload: %w", err)
	}

	id := scalarString(u.ID)
	if id == "" {
		return Identity{}, ErrMissingID
	}

	role, err := ParseRole(u.Role)
	if err != nil {
		return Identity{}, err
	}

	subscriptionActive := true
	if u.SubscriptionActive != nil {
		subscriptionActive = *u.SubscriptionActive
	}

	return Identity{
		ID:                 id,
		DisplayName:        strings.TrimSpace(u.FirstName + " " + u.LastName),
		Email:              u.Email,
		Role:               role,
		EstateID:           scalarString(u.Estate),
		SubscriptionActive: subscriptionActive,
	}, nil
}

// scalarString stringifies a JSON string or number, null and absent values become "".
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return ""
}
