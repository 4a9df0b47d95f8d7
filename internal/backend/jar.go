// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package backend

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

const CSRFCookieName = "csrftoken"

var _ http.CookieJar = (*Jar)(nil)

type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

func (c storedCookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// Jar holds the cookies of a single backend origin. Unlike net/http/cookiejar it can be
// snapshotted, so a session survives process restarts.
type Jar struct {
	mu      sync.RWMutex
	cookies map[string]storedCookie
	changed bool

	now func() time.Time
}

func (j *Jar) SetCookies(_ *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()

	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}

		sc := storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}

		switch {
		case c.MaxAge < 0:
			sc.Expires = now
		case c.MaxAge > 0:
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			sc.Expires = c.Expires
		}

		if sc.expired(now) {
			if _, ok := j.cookies[c.Name]; ok {
				delete(j.cookies, c.Name)
				j.changed = true
			}
			continue
		}

		j.cookies[c.Name] = sc
		j.changed = true
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()

	now := j.now()
	path := "/"
	if u != nil && u.Path != "" {
		path = u.Path
	}

	names := make([]string, 0, len(j.cookies))
	for name := range j.cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		c := j.cookies[name]

		if c.expired(now) {
			continue
		}
		if c.Secure && u != nil && u.Scheme != "https" {
			continue
		}
		if c.Path != "" && !strings.HasPrefix(path, c.Path) {
			continue
		}

		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}

	return out
}

// Get returns the value of a live cookie, or an empty string.
func (j *Jar) Get(name string) string {
	j.mu.RLock()
	defer j.mu.RUnlock()

	c, ok := j.cookies[name]
	if !ok || c.expired(j.now()) {
		return ""
	}

	return c.Value
}

func (j *Jar) Remove(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.cookies[name]; ok {
		delete(j.cookies, name)
		j.changed = true
	}
}

func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.cookies) > 0 {
		j.changed = true
	}
	j.cookies = make(map[string]storedCookie)
}

func (j *Jar) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return len(j.cookies)
}

// Changed reports whether the jar was modified since it was created, restored or last snapshotted.
func (j *Jar) Changed() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.changed
}

// Snapshot serializes the live cookies.
func (j *Jar) Snapshot() ([]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	live := make([]storedCookie, 0, len(j.cookies))

	for _, c := range j.cookies {
		if !c.expired(now) {
			live = append(live, c)
		}
	}
	sort.Slice(live, func(a, b int) bool { return live[a].Name < live[b].Name })

	data, err := json.Marshal(live)
	if err != nil {
		return nil, err
	}

	j.changed = false

	return data, nil
}

// Restore replaces the jar content with a snapshot.
func (j *Jar) Restore(data []byte) error {
	var cookies []storedCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	j.cookies = make(map[string]storedCookie, len(cookies))

	for _, c := range cookies {
		if c.Name == "" || c.expired(now) {
			continue
		}
		j.cookies[c.Name] = c
	}
	j.changed = false

	return nil
}

func NewJar() *Jar {
	j := new(Jar)

	j.cookies = make(map[string]storedCookie)
	j.now = time.Now

	return j
}
