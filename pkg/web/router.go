// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/canonical/estate-portal/internal/http/types"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/tracing"
	"github.com/canonical/estate-portal/pkg/access"
	"github.com/canonical/estate-portal/pkg/authentication"
	"github.com/canonical/estate-portal/pkg/metrics"
	"github.com/canonical/estate-portal/pkg/session"
	"github.com/canonical/estate-portal/pkg/status"
)

// publicAPI lists the backend reads used by public screens, they need no sign in.
var publicAPI = []string{
	"/api/csrf-cookie/",
	"/api/estates/",
	"/api/estates/{estateId}/",
	"/api/subscription/plans/",
}

func NewRouter(
	auth *authentication.API,
	sessions *session.Manager,
	gate *access.Gate,
	proxy *Proxy,
	screens *Screens,
	checks map[string]status.HealthCheckerInterface,
	allowedOrigins []string,
	trustProxyHeaders bool,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)

	// behind an ingress the client address comes from X-Forwarded-For, rate limiting keys on it
	if trustProxyHeaders {
		middlewares = append(middlewares, middleware.RealIP)
	}

	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS(allowedOrigins),
	)

	router.Use(middlewares...)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(checks, tracer, monitor, logger).RegisterEndpoints(router)

	router.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		auth.RegisterEndpoints(r)
		screens.RegisterEndpoints(r)

		// authentication only goes through the gateway, which owns the session
		r.HandleFunc("/api/auth/*", func(w http.ResponseWriter, _ *http.Request) {
			types.WriteError(w, http.StatusNotFound, "")
		})

		for _, p := range publicAPI {
			r.Get(p, proxy.ServeHTTP)
		}

		r.With(gate.RequireSession).Handle("/api/*", proxy)
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}
