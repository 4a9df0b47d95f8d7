// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package access

import (
	"testing"

	"github.com/canonical/estate-portal/internal/identity"
)

var allRoles = []identity.Role{identity.RoleUnknown, identity.RoleAdmin, identity.RoleResident, identity.RoleSecurity, identity.Role(42)}

func TestDecide_UnauthenticatedAlwaysGoesToLogin(t *testing.T) {
	paths := []string{"/admin/dashboard", "/admin/subscription", "/subscription-required", "/resident/pay-dues"}
	required := [][]identity.Role{nil, {identity.RoleAdmin}, {identity.RoleResident, identity.RoleAdmin}, {identity.RoleSecurity}}

	for _, role := range allRoles {
		for _, active := range []bool{true, false} {
			for _, path := range paths {
				for _, roles := range required {
					d := Decide(Request{Hydrated: true, Role: role, SubscriptionActive: active, RequiredRoles: roles, Path: path})

					if d.Outcome != RedirectLogin || d.Location != LoginPath {
						t.Errorf("role %s, active %t, path %s, roles %v: expected login redirect, got %+v", role, active, path, roles, d)
					}
				}
			}
		}
	}
}

func TestDecide_WaitsUntilHydrated(t *testing.T) {
	for _, role := range allRoles {
		for _, authenticated := range []bool{true, false} {
			d := Decide(Request{Authenticated: authenticated, Role: role, Path: "/admin/dashboard"})

			if d.Outcome != Wait || d.Location != "" {
				t.Errorf("role %s, authenticated %t: expected wait, got %+v", role, authenticated, d)
			}
		}
	}
}

func TestDecide_BillingWall(t *testing.T) {
	testCases := []struct {
		name     string
		role     identity.Role
		path     string
		roles    []identity.Role
		expected Decision
	}{
		{
			name:     "admin on any screen goes to the admin wall",
			role:     identity.RoleAdmin,
			path:     "/admin/dashboard",
			roles:    []identity.Role{identity.RoleAdmin},
			expected: Decision{Outcome: RedirectSubscriptionWall, Location: AdminSubscriptionPath},
		},
		{
			name:     "admin on a resident screen still goes to the wall first",
			role:     identity.RoleAdmin,
			path:     "/resident/pay-dues",
			roles:    []identity.Role{identity.RoleResident},
			expected: Decision{Outcome: RedirectSubscriptionWall, Location: AdminSubscriptionPath},
		},
		{
			name:     "admin on the wall renders",
			role:     identity.RoleAdmin,
			path:     AdminSubscriptionPath,
			roles:    []identity.Role{identity.RoleAdmin},
			expected: Decision{Outcome: Render},
		},
		{
			name:     "admin below the wall renders",
			role:     identity.RoleAdmin,
			path:     AdminSubscriptionPath + "/plans",
			expected: Decision{Outcome: Render},
		},
		{
			name:     "resident goes to the shared wall",
			role:     identity.RoleResident,
			path:     "/resident/dashboard",
			roles:    []identity.Role{identity.RoleResident},
			expected: Decision{Outcome: RedirectSubscriptionWall, Location: SubscriptionRequiredPath},
		},
		{
			name:     "security goes to the shared wall",
			role:     identity.RoleSecurity,
			path:     SecurityFallbackPath,
			roles:    []identity.Role{identity.RoleSecurity},
			expected: Decision{Outcome: RedirectSubscriptionWall, Location: SubscriptionRequiredPath},
		},
		{
			name:     "resident on the shared wall renders",
			role:     identity.RoleResident,
			path:     SubscriptionRequiredPath,
			expected: Decision{Outcome: Render},
		},
		{
			name:     "resident on the admin wall is confined to the shared wall",
			role:     identity.RoleResident,
			path:     AdminSubscriptionPath,
			roles:    []identity.Role{identity.RoleAdmin},
			expected: Decision{Outcome: RedirectSubscriptionWall, Location: SubscriptionRequiredPath},
		},
		{
			name:     "wall path with a role mismatch falls through to the role check",
			role:     identity.RoleSecurity,
			path:     SubscriptionRequiredPath,
			roles:    []identity.Role{identity.RoleAdmin},
			expected: Decision{Outcome: RedirectRoleHome, Location: SecurityFallbackPath},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(Request{Hydrated: true, Authenticated: true, Role: tc.role, RequiredRoles: tc.roles, Path: tc.path})

			if d != tc.expected {
				t.Errorf("expected %+v, got %+v", tc.expected, d)
			}
		})
	}
}

func TestDecide_AdminWallNeverLoops(t *testing.T) {
	for _, r := range Routes() {
		d := Decide(Request{Hydrated: true, Authenticated: true, Role: identity.RoleAdmin, RequiredRoles: r.Roles, Path: r.Pattern})

		if r.Pattern == AdminSubscriptionPath {
			if d.Outcome != Render {
				t.Errorf("expected the wall to render, got %+v", d)
			}
			continue
		}

		if d.Outcome != RedirectSubscriptionWall || d.Location != AdminSubscriptionPath {
			t.Errorf("%s: expected the admin wall, got %+v", r.Pattern, d)
		}
	}
}

func TestDecide_RoleChecks(t *testing.T) {
	testCases := []struct {
		name     string
		role     identity.Role
		path     string
		roles    []identity.Role
		expected Decision
	}{
		{
			name:     "resident on an admin screen goes home",
			role:     identity.RoleResident,
			path:     "/admin/dashboard",
			roles:    []identity.Role{identity.RoleAdmin},
			expected: Decision{Outcome: RedirectRoleHome, Location: "/resident/dashboard"},
		},
		{
			name:     "security on a resident screen goes to visitor verification",
			role:     identity.RoleSecurity,
			path:     "/resident/dashboard",
			roles:    []identity.Role{identity.RoleResident},
			expected: Decision{Outcome: RedirectRoleHome, Location: "/security/verify-visitor"},
		},
		{
			name:     "admin on a resident screen goes home",
			role:     identity.RoleAdmin,
			path:     "/resident/profile",
			roles:    []identity.Role{identity.RoleResident},
			expected: Decision{Outcome: RedirectRoleHome, Location: "/admin/dashboard"},
		},
		{
			name:     "admin on a shared screen renders",
			role:     identity.RoleAdmin,
			path:     "/resident/visitor-codes",
			roles:    []identity.Role{identity.RoleResident, identity.RoleAdmin},
			expected: Decision{Outcome: Render},
		},
		{
			name:     "no required roles renders for any valid role",
			role:     identity.RoleSecurity,
			path:     "/anything",
			expected: Decision{Outcome: Render},
		},
		{
			name:     "unknown role goes to login",
			role:     identity.RoleUnknown,
			path:     "/resident/dashboard",
			roles:    []identity.Role{identity.RoleResident},
			expected: Decision{Outcome: RedirectLogin, Location: LoginPath},
		},
		{
			name:     "out of range role goes to login",
			role:     identity.Role(42),
			path:     "/resident/dashboard",
			expected: Decision{Outcome: RedirectLogin, Location: LoginPath},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(Request{Hydrated: true, Authenticated: true, Role: tc.role, SubscriptionActive: true, RequiredRoles: tc.roles, Path: tc.path})

			if d != tc.expected {
				t.Errorf("expected %+v, got %+v", tc.expected, d)
			}
		})
	}
}

func TestDecideGuest(t *testing.T) {
	testCases := []struct {
		authenticated bool
		role          identity.Role
		expected      Decision
	}{
		{authenticated: false, role: identity.RoleAdmin, expected: Decision{Outcome: Render}},
		{authenticated: true, role: identity.RoleAdmin, expected: Decision{Outcome: RedirectRoleHome, Location: "/admin/dashboard"}},
		{authenticated: true, role: identity.RoleResident, expected: Decision{Outcome: RedirectRoleHome, Location: "/resident/dashboard"}},
		{authenticated: true, role: identity.RoleSecurity, expected: Decision{Outcome: RedirectRoleHome, Location: SecurityFallbackPath}},
		{authenticated: true, role: identity.RoleUnknown, expected: Decision{Outcome: Render}},
	}

	for _, tc := range testCases {
		t.Run(tc.role.String(), func(t *testing.T) {
			if d := DecideGuest(tc.authenticated, tc.role); d != tc.expected {
				t.Errorf("expected %+v, got %+v", tc.expected, d)
			}
		})
	}
}

func TestRoleHome_IsAlwaysRenderable(t *testing.T) {
	for _, role := range identity.Roles() {
		route, _, ok := Match(RoleHome(role))
		if !ok {
			t.Fatalf("%s: home %s is not a known screen", role, RoleHome(role))
		}

		d := route.Decide(route.Pattern, true, identity.Identity{ID: "1", Role: role, SubscriptionActive: true}, true)
		if d.Outcome != Render {
			t.Errorf("%s: expected the home screen to render, got %+v", role, d)
		}
	}
}
