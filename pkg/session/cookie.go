// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"net/http"
	"time"
)

const CookieName = "estate_portal_session"

// CookieOptions defines how portal session cookies are issued.
type CookieOptions struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	TTL      time.Duration
}

// normalize applies safe defaults.
func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// SetCookie issues the session cookie to the browser. HttpOnly is always set.
func SetCookie(w http.ResponseWriter, id string, opts CookieOptions) {
	opts = opts.normalize()

	c := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     opts.Path,
		Domain:   opts.Domain,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}

	if opts.TTL > 0 {
		c.MaxAge = int(opts.TTL.Seconds())
		c.Expires = time.Now().Add(opts.TTL)
	}

	http.SetCookie(w, c)
}

// ClearCookie removes the session cookie from the browser.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     opts.Path,
		Domain:   opts.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// cookieID returns the session id carried by the request, if any.
func cookieID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}

	return c.Value
}
