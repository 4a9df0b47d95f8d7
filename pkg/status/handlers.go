// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/canonical/estate-portal/internal/http/types"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/tracing"
	"github.com/canonical/estate-portal/internal/version"
)

const checkTimeout = 2 * time.Second

type BuildInfo struct {
	Version string `json:"version"`
	Name    string `json:"name"`
}

type Check struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type Status struct {
	Status    string     `json:"status"`
	BuildInfo *BuildInfo `json:"buildInfo,omitempty"`
	Checks    []Check    `json:"checks,omitempty"`
}

type API struct {
	checks map[string]HealthCheckerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/status", a.alive)
	mux.Get("/api/v0/status/deep", a.deep)
}

func (a *API) alive(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.alive")
	defer span.End()

	types.WriteJSON(w, http.StatusOK, Status{Status: "ok", BuildInfo: buildInfo()})
}

// deep pings every dependency concurrently and answers 503 if any is down.
func (a *API) deep(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "status.API.deep")
	defer span.End()

	checks := a.run(ctx)

	s := Status{Status: "ok", BuildInfo: buildInfo(), Checks: checks}
	code := http.StatusOK

	for _, c := range checks {
		if !c.OK {
			s.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	types.WriteJSON(w, code, s)
}

func (a *API) run(ctx context.Context) []Check {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		g      errgroup.Group
		checks = make([]Check, 0, len(a.checks))
	)

	for name, checker := range a.checks {
		g.Go(func() error {
			c := Check{Name: name, OK: true}
			if err := checker.Ping(ctx); err != nil {
				a.logger.Errorf("health check %s failed: %v", name, err)
				c.OK = false
				c.Error = err.Error()
			}

			mu.Lock()
			checks = append(checks, c)
			mu.Unlock()

			// a failed check is reported, it must not cancel the others
			return nil
		})
	}

	_ = g.Wait()

	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })

	return checks
}

func buildInfo() *BuildInfo {
	return &BuildInfo{Name: "estate-portal", Version: version.Version}
}

// NewAPI returns an API object responsible for the status endpoints
func NewAPI(checks map[string]HealthCheckerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.checks = checks

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
