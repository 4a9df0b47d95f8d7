// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package backend

import (
	"net/http"
	"net/url"
	"testing"
	"time"
)

func TestJar_SetCookiesAndExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u, _ := url.Parse("https://estate.example.com/api/")

	j := NewJar()
	j.now = func() time.Time { return now }

	j.SetCookies(u, []*http.Cookie{
		{Name: "sessionid", Value: "s1", Path: "/", HttpOnly: true},
		{Name: CSRFCookieName, Value: "t1", MaxAge: 3600},
		{Name: "stale", Value: "x", Expires: now.Add(-time.Minute)},
	})

	if j.Get("sessionid") != "s1" || j.Get(CSRFCookieName) != "t1" {
		t.Fatalf("expected cookies to be stored")
	}
	if j.Get("stale") != "" {
		t.Errorf("expected expired cookie to be ignored")
	}
	if !j.Changed() {
		t.Errorf("expected jar to report a change")
	}

	j.SetCookies(u, []*http.Cookie{{Name: CSRFCookieName, MaxAge: -1}})
	if j.Get(CSRFCookieName) != "" {
		t.Errorf("expected csrftoken to be removed by a negative max age")
	}

	now = now.Add(2 * time.Hour)
	if len(j.Cookies(u)) != 1 {
		t.Errorf("expected only the session cookie to be sent, got %v", j.Cookies(u))
	}
}

func TestJar_CookiesFiltering(t *testing.T) {
	j := NewJar()
	j.SetCookies(nil, []*http.Cookie{
		{Name: "secure", Value: "1", Secure: true},
		{Name: "admin", Value: "2", Path: "/admin"},
		{Name: "plain", Value: "3"},
	})

	testCases := []struct {
		name     string
		url      string
		expected []string
	}{
		{name: "https sees secure cookies", url: "https://h/api/", expected: []string{"plain", "secure"}},
		{name: "http drops secure cookies", url: "http://h/api/", expected: []string{"plain"}},
		{name: "path scoped cookie", url: "https://h/admin/x", expected: []string{"admin", "plain", "secure"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, _ := url.Parse(tc.url)
			cookies := j.Cookies(u)

			if len(cookies) != len(tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, cookies)
			}
			for i, c := range cookies {
				if c.Name != tc.expected[i] {
					t.Errorf("expected cookie %d to be %s, got %s", i, tc.expected[i], c.Name)
				}
			}
		})
	}
}

func TestJar_SnapshotRestore(t *testing.T) {
	j := NewJar()
	j.SetCookies(nil, []*http.Cookie{
		{Name: "sessionid", Value: "s1"},
		{Name: CSRFCookieName, Value: "t1"},
	})

	data, err := j.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Changed() {
		t.Errorf("expected snapshot to reset the change flag")
	}

	restored := NewJar()
	if err := restored.Restore(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored.Get("sessionid") != "s1" || restored.Get(CSRFCookieName) != "t1" {
		t.Errorf("expected cookies to survive a snapshot round trip")
	}

	restored.Clear()
	if restored.Len() != 0 || !restored.Changed() {
		t.Errorf("expected clear to empty the jar and mark it changed")
	}

	if err := restored.Restore([]byte("not json")); err == nil {
		t.Errorf("expected an error for a malformed snapshot")
	}
}
