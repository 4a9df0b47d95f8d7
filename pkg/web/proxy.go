// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/canonical/estate-portal/internal/backend"
	"github.com/canonical/estate-portal/internal/http/types"
	"github.com/canonical/estate-portal/internal/identity"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/tracing"
	"github.com/canonical/estate-portal/pkg/access"
	"github.com/canonical/estate-portal/pkg/session"
)

type sessionKey struct{}

// Proxy forwards browser API calls to the estate backend on behalf of the portal
// session. The browser never sees backend cookies: they live in the session jar.
type Proxy struct {
	backend *backend.Client
	target  *url.URL
	origin  string
	rp      *httputil.ReverseProxy

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := p.tracer.Start(r.Context(), "web.Proxy.ServeHTTP")
	defer span.End()

	s, ok := session.FromContext(ctx)
	if !ok {
		types.WriteError(w, http.StatusInternalServerError, "")
		return
	}

	if !access.CanonicalPath(r.URL.Path) {
		types.WriteError(w, http.StatusBadRequest, "Invalid request path.")
		return
	}

	if isMutating(r.Method) && s.Jar.Get(backend.CSRFCookieName) == "" {
		if err := p.backend.WithJar(s.Jar).PrimeCSRF(ctx); err != nil {
			p.logger.Warnf("csrf priming failed before proxying %s %s: %v", r.Method, r.URL.Path, err)
			types.WriteError(w, http.StatusBadGateway, "Could not prepare secure session. Please try again.")
			return
		}
	}

	if i, ok := identity.FromContext(ctx); ok {
		p.logger.Debugf("proxying %s %s for user %s", r.Method, r.URL.Path, i.ID)
	}

	p.rp.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey{}, s)))
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	s := pr.In.Context().Value(sessionKey{}).(*session.Session)

	pr.SetURL(p.target)
	// SetURL joins paths, the incoming path already carries /api
	pr.Out.URL.Path = p.target.Path + pr.In.URL.Path
	pr.Out.URL.RawPath = ""
	pr.Out.Host = p.target.Host

	// browser cookies belong to the portal, the backend only gets its own
	pr.Out.Header.Del("Cookie")
	pr.Out.Header.Del("Authorization")
	for _, c := range s.Jar.Cookies(pr.Out.URL) {
		pr.Out.AddCookie(c)
	}

	pr.Out.Header.Del(backend.CSRFHeader)
	if isMutating(pr.In.Method) {
		if token := s.Jar.Get(backend.CSRFCookieName); token != "" {
			pr.Out.Header.Set(backend.CSRFHeader, token)
		}
		pr.Out.Header.Set("Referer", p.origin+"/")
		pr.Out.Header.Set("Origin", p.origin)
	}
}

func (p *Proxy) modifyResponse(res *http.Response) error {
	s, ok := res.Request.Context().Value(sessionKey{}).(*session.Session)
	if ok {
		s.Jar.SetCookies(res.Request.URL, res.Cookies())
	}
	res.Header.Del("Set-Cookie")

	return nil
}

func (p *Proxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Errorf("proxying %s %s failed: %v", r.Method, r.URL.Path, err)
	types.WriteError(w, http.StatusBadGateway, "An unexpected error occurred.")
}

func isMutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}

func NewProxy(c *backend.Client, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Proxy {
	p := new(Proxy)

	p.backend = c
	p.target = c.BaseURL()
	p.origin = p.target.Scheme + "://" + p.target.Host

	p.rp = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		Transport:      c.Transport(),
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.errorHandler,
	}

	p.tracer = tracer
	p.monitor = monitor
	p.logger = logger

	return p
}
