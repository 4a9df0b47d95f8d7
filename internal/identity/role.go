// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned when a role string is not one of admin, resident or security.
var ErrUnknownRole = errors.New("unknown role")

// Role is the closed set of portal roles. The zero value is RoleUnknown.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleResident
	RoleSecurity
)

var roleNames = map[Role]string{
	RoleAdmin:    "admin",
	RoleResident: "resident",
	RoleSecurity: "security",
}

// ParseRole decodes a backend role string, ignoring case and surrounding whitespace.
func ParseRole(s string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for r, name := range roleNames {
		if name == normalized {
			return r, nil
		}
	}
	return RoleUnknown, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Roles returns every valid role in declaration order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleResident, RoleSecurity}
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return json.Marshal("")
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON never fails on an unrecognised value: it yields RoleUnknown so a
// corrupt persisted role is handled by the access gate instead of the decoder.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseRole(s)
	if err != nil {
		*r = RoleUnknown
		return nil
	}

	*r = parsed
	return nil
}
