// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/estate-portal/internal/http/types"
	"github.com/canonical/estate-portal/internal/identity"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/tracing"
	"github.com/canonical/estate-portal/pkg/access"
	"github.com/canonical/estate-portal/pkg/session"
)

// ScreenDescriptor is answered for a rendered screen when no UI bundle is configured.
type ScreenDescriptor struct {
	Screen string             `json:"screen"`
	Path   string             `json:"path"`
	Route  access.Route       `json:"route"`
	Params map[string]string  `json:"params,omitempty"`
	User   *identity.Identity `json:"user,omitempty"`
}

// Screens serves every portal screen behind the access gate.
type Screens struct {
	uiDir  string
	assets http.Handler

	gate *access.Gate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *Screens) RegisterEndpoints(mux chi.Router) {
	for _, route := range access.Routes() {
		mux.With(s.gate.Screen(route)).Get(route.Pattern, s.render(route))
	}

	if s.assets != nil {
		mux.Get("/*", s.assets.ServeHTTP)
	}
}

func (s *Screens) render(route access.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := s.tracer.Start(r.Context(), "web.Screens.render")
		defer span.End()

		if s.uiDir != "" {
			http.ServeFile(w, r, filepath.Join(s.uiDir, "index.html"))
			return
		}

		d := ScreenDescriptor{Screen: route.Name, Path: r.URL.Path, Route: route}
		if _, params, ok := access.Match(r.URL.Path); ok {
			d.Params = params
		}

		if sess, ok := session.FromContext(r.Context()); ok {
			if i, authenticated := sess.Store.Current(); authenticated {
				d.User = &i
			}
		}

		types.WriteData(w, http.StatusOK, "", d)
	}
}

// NewScreens serves the single page application shell from uiDir, or JSON screen
// descriptors when uiDir is empty.
func NewScreens(uiDir string, gate *access.Gate, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Screens {
	s := new(Screens)

	s.gate = gate

	if uiDir != "" {
		if info, err := os.Stat(filepath.Join(uiDir, "index.html")); err != nil || info.IsDir() {
			logger.Errorf("UI_DIR %s has no index.html, serving screen descriptors instead", uiDir)
		} else {
			s.uiDir = uiDir
			s.assets = http.FileServer(http.Dir(uiDir))
		}
	}

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
