// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package access

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/canonical/estate-portal/internal/http/types"
	"github.com/canonical/estate-portal/internal/identity"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/tracing"
	"github.com/canonical/estate-portal/pkg/session"
)

// billingAPIPrefix stays reachable behind the subscription wall, the wall screen needs it.
const billingAPIPrefix = "/api/subscription/"

// Gate applies access decisions to HTTP requests carrying a portal session.
type Gate struct {
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Evaluate decides whether the session in ctx may see route at path.
func (g *Gate) Evaluate(ctx context.Context, route Route, path string) Decision {
	_, span := g.tracer.Start(ctx, "access.Gate.Evaluate")
	defer span.End()

	hydrated, i, authenticated := state(ctx)
	d := route.Decide(path, hydrated, i, authenticated)

	g.record(ctx, d, i, path)

	return d
}

func (g *Gate) record(ctx context.Context, d Decision, i identity.Identity, path string) {
	if err := g.monitor.IncGateDecision(map[string]string{"outcome": d.Outcome.String()}); err != nil {
		g.logger.Debugf("failed to count gate decision: %v", err)
	}

	if d.Outcome == RedirectRoleHome && i.ID != "" {
		var opts []logging.Option
		if s, ok := session.FromContext(ctx); ok {
			opts = append(opts, logging.WithSessionID(s.ID))
		}
		g.logger.Security().AuthzFailure(i.ID, path, opts...)
	}
}

// Middleware gates every request whose path is a known screen. Other paths pass through.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, _, ok := Match(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		g.Screen(route)(next).ServeHTTP(w, r)
	})
}

// Screen gates a handler serving route. Redirects answer 302, Wait answers 503.
func (g *Gate) Screen(route Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Evaluate(r.Context(), route, r.URL.Path)

			switch {
			case d.Outcome == Wait:
				w.Header().Set("Retry-After", "1")
				types.WriteError(w, http.StatusServiceUnavailable, "Loading session, please retry.")
			case d.Outcome.Redirect():
				http.Redirect(w, r, d.Location, http.StatusFound)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireSession guards API calls made on behalf of the session. Instead of redirecting
// it answers 401 for a missing session and 403 behind the subscription wall.
func (g *Gate) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the path is forwarded as is, it must be the one the decision is made on
		if !CanonicalPath(r.URL.Path) {
			types.WriteError(w, http.StatusBadRequest, "Invalid request path.")
			return
		}

		hydrated, i, authenticated := state(r.Context())

		d := Decide(Request{
			Hydrated:           hydrated,
			Authenticated:      authenticated,
			Role:               i.Role,
			SubscriptionActive: i.SubscriptionActive,
			Path:               r.URL.Path,
		})

		if d.Outcome == RedirectSubscriptionWall && strings.HasPrefix(r.URL.Path, billingAPIPrefix) {
			d = Decision{Outcome: Render}
		}

		g.record(r.Context(), d, i, r.URL.Path)

		switch d.Outcome {
		case Wait:
			w.Header().Set("Retry-After", "1")
			types.WriteError(w, http.StatusServiceUnavailable, "Loading session, please retry.")
		case RedirectLogin:
			types.WriteError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		case RedirectSubscriptionWall:
			w.Header().Set("Location", d.Location)
			types.WriteError(w, http.StatusForbidden, "An active subscription is required.")
		default:
			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), i)))
		}
	})
}

// CanonicalPath reports whether p has no dot segments or repeated slashes. A trailing slash is kept.
func CanonicalPath(p string) bool {
	clean := path.Clean(p)
	if strings.HasSuffix(p, "/") && clean != "/" {
		clean += "/"
	}

	return clean == p
}

// state reads the gate inputs from the request session. No session means signed out.
func state(ctx context.Context) (bool, identity.Identity, bool) {
	s, ok := session.FromContext(ctx)
	if !ok || s.Store == nil {
		return true, identity.Identity{}, false
	}

	i, authenticated := s.Store.Current()

	return s.Store.Hydrated(), i, authenticated
}

func NewGate(tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Gate {
	g := new(Gate)

	g.tracer = tracer
	g.monitor = monitor
	g.logger = logger

	return g
}
