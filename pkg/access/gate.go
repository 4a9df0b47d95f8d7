// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package access

import (
	"slices"
	"strings"

	"github.com/canonical/estate-portal/internal/identity"
)

const (
	LoginPath                = "/login"
	LandingPath              = "/"
	AdminSubscriptionPath    = "/admin/subscription"
	SubscriptionRequiredPath = "/subscription-required"
	SecurityFallbackPath     = "/security/verify-visitor"
)

// Outcome is the result of evaluating the gate for one navigation.
type Outcome uint8

const (
	Render Outcome = iota
	RedirectLogin
	RedirectSubscriptionWall
	RedirectRoleHome
	// Wait is returned while the identity is still being hydrated. It renders a placeholder.
	Wait
)

var outcomeNames = map[Outcome]string{
	Render:                   "render",
	RedirectLogin:            "redirect_login",
	RedirectSubscriptionWall: "redirect_subscription_wall",
	RedirectRoleHome:         "redirect_role_home",
	Wait:                     "wait",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Redirect reports whether the outcome sends the user elsewhere.
func (o Outcome) Redirect() bool {
	return o == RedirectLogin || o == RedirectSubscriptionWall || o == RedirectRoleHome
}

type Request struct {
	Hydrated           bool
	Authenticated      bool
	Role               identity.Role
	SubscriptionActive bool
	// RequiredRoles restricts the screen, empty means any valid role.
	RequiredRoles []identity.Role
	Path          string
}

type Decision struct {
	Outcome Outcome
	// Location is the redirect target, empty unless Outcome is a redirect.
	Location string
}

// Decide evaluates the ordered gate rules for a protected screen. The first matching rule wins.
func Decide(r Request) Decision {
	if !r.Hydrated {
		return Decision{Outcome: Wait}
	}

	if !r.Authenticated {
		return Decision{Outcome: RedirectLogin, Location: LoginPath}
	}

	// a corrupt or unknown role is treated as no session at all
	if !r.Role.Valid() {
		return Decision{Outcome: RedirectLogin, Location: LoginPath}
	}

	if !r.SubscriptionActive {
		wall := SubscriptionWall(r.Role)
		if !strings.HasPrefix(r.Path, wall) {
			return Decision{Outcome: RedirectSubscriptionWall, Location: wall}
		}
	}

	if len(r.RequiredRoles) > 0 && !slices.Contains(r.RequiredRoles, r.Role) {
		return Decision{Outcome: RedirectRoleHome, Location: RoleHome(r.Role)}
	}

	return Decision{Outcome: Render}
}

// DecideGuest evaluates a guest only screen: signed in users are sent to their home screen.
func DecideGuest(authenticated bool, role identity.Role) Decision {
	if authenticated && role.Valid() {
		return Decision{Outcome: RedirectRoleHome, Location: RoleHome(role)}
	}

	return Decision{Outcome: Render}
}

// RoleHome is the landing screen of a role. Security has no dashboard and lands on visitor verification.
func RoleHome(role identity.Role) string {
	switch role {
	case identity.RoleAdmin:
		return "/admin/dashboard"
	case identity.RoleResident:
		return "/resident/dashboard"
	case identity.RoleSecurity:
		return SecurityFallbackPath
	}

	return LandingPath
}

// SubscriptionWall is the only screen a role may use while its subscription is inactive.
func SubscriptionWall(role identity.Role) string {
	if role == identity.RoleAdmin {
		return AdminSubscriptionPath
	}

	return SubscriptionRequiredPath
}
