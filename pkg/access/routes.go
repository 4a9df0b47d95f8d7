// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package access

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/canonical/estate-portal/internal/identity"
)

// Kind tells how a screen is gated.
type Kind uint8

const (
	Public Kind = iota
	Guest
	Protected
)

func (k Kind) String() string {
	switch k {
	case Guest:
		return "guest"
	case Protected:
		return "protected"
	}
	return "public"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "guest":
		*k = Guest
	case "protected":
		*k = Protected
	case "public":
		*k = Public
	default:
		return fmt.Errorf("unknown route kind %q", text)
	}
	return nil
}

// Route is one screen of the portal.
type Route struct {
	Pattern string          `json:"pattern"`
	Name    string          `json:"name"`
	Kind    Kind            `json:"kind"`
	Roles   []identity.Role `json:"roles,omitempty"`
}

var (
	admin    = []identity.Role{identity.RoleAdmin}
	resident = []identity.Role{identity.RoleResident}
	security = []identity.Role{identity.RoleSecurity}
)

var routes = []Route{
	{Pattern: "/", Name: "landing", Kind: Public},
	{Pattern: "/login", Name: "login", Kind: Guest},
	{Pattern: "/register", Name: "register", Kind: Guest},
	{Pattern: "/verify-email", Name: "verify-email", Kind: Guest},
	{Pattern: "/forgot-password", Name: "forgot-password", Kind: Guest},
	{Pattern: "/reset-password", Name: "reset-password", Kind: Guest},
	{Pattern: "/register-estate", Name: "register-estate", Kind: Guest},
	{Pattern: "/subscription-required", Name: "subscription-required", Kind: Public},
	{Pattern: "/estates", Name: "estates", Kind: Public},
	{Pattern: "/pricing", Name: "pricing", Kind: Public},
	{Pattern: "/terms", Name: "terms", Kind: Public},

	{Pattern: "/admin/dashboard", Name: "admin-dashboard", Kind: Protected, Roles: admin},
	{Pattern: "/admin/residents", Name: "admin-residents", Kind: Protected, Roles: admin},
	{Pattern: "/admin/payments", Name: "admin-payments", Kind: Protected, Roles: admin},
	{Pattern: "/admin/dues", Name: "admin-dues", Kind: Protected, Roles: admin},
	{Pattern: "/admin/estate-profile", Name: "admin-estate-profile", Kind: Protected, Roles: admin},
	{Pattern: "/admin/estates/{estateId}/leadership", Name: "admin-estate-leadership", Kind: Protected, Roles: admin},
	{Pattern: "/admin/subscription", Name: "admin-subscription", Kind: Protected, Roles: admin},
	{Pattern: "/admin/announcements", Name: "admin-announcements", Kind: Protected, Roles: admin},

	{Pattern: "/resident/dashboard", Name: "resident-dashboard", Kind: Protected, Roles: resident},
	{Pattern: "/resident/visitor-codes", Name: "resident-visitor-codes", Kind: Protected, Roles: []identity.Role{identity.RoleResident, identity.RoleAdmin}},
	{Pattern: "/resident/pay-dues", Name: "resident-pay-dues", Kind: Protected, Roles: resident},
	{Pattern: "/resident/profile", Name: "resident-profile", Kind: Protected, Roles: resident},
	{Pattern: "/resident/estate", Name: "resident-estate", Kind: Protected, Roles: resident},

	{Pattern: "/security/verify-visitor", Name: "security-verify-visitor", Kind: Protected, Roles: security},
}

// Routes returns a copy of the screen table.
func Routes() []Route {
	out := make([]Route, len(routes))
	for i, r := range routes {
		r.Roles = slices.Clone(r.Roles)
		out[i] = r
	}

	return out
}

// Lookup returns the route with the given name.
func Lookup(name string) (Route, bool) {
	for _, r := range Routes() {
		if r.Name == name {
			return r, true
		}
	}

	return Route{}, false
}

// Match finds the route serving path along with its {param} values.
func Match(path string) (Route, map[string]string, bool) {
	segments := split(path)

	for _, r := range Routes() {
		if params, ok := r.match(segments); ok {
			return r, params, true
		}
	}

	return Route{}, nil, false
}

func (r Route) match(segments []string) (map[string]string, bool) {
	pattern := split(r.Pattern)
	if len(pattern) != len(segments) {
		return nil, false
	}

	var params map[string]string

	for i, p := range pattern {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if segments[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:len(p)-1]] = segments[i]
			continue
		}

		if p != segments[i] {
			return nil, false
		}
	}

	return params, true
}

// Path fills the {param} segments of the pattern. Missing params are left as is.
func (r Route) Path(params map[string]string) string {
	segments := split(r.Pattern)
	for i, p := range segments {
		if !strings.HasPrefix(p, "{") || !strings.HasSuffix(p, "}") {
			continue
		}
		if v, ok := params[p[1:len(p)-1]]; ok && v != "" {
			segments[i] = url.PathEscape(v)
		}
	}

	return "/" + strings.Join(segments, "/")
}

// Request builds the gate input for this route.
func (r Route) Request(path string, hydrated bool, i identity.Identity, authenticated bool) Request {
	return Request{
		Hydrated:           hydrated,
		Authenticated:      authenticated,
		Role:               i.Role,
		SubscriptionActive: i.SubscriptionActive,
		RequiredRoles:      r.Roles,
		Path:               path,
	}
}

// Decide evaluates the gate for this route. Public routes always render.
func (r Route) Decide(path string, hydrated bool, i identity.Identity, authenticated bool) Decision {
	switch r.Kind {
	case Guest:
		return DecideGuest(authenticated, i.Role)
	case Protected:
		return Decide(r.Request(path, hydrated, i, authenticated))
	}

	return Decision{Outcome: Render}
}

func split(path string) []string {
	path, _, _ = strings.Cut(path, "?")
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}

	return strings.Split(path, "/")
}
