// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package backend

import (
	"context"
	"net/url"
)

// ClientInterface talks JSON to the estate backend on behalf of one cookie jar.
type ClientInterface interface {
	PrimeCSRF(ctx context.Context) error
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Put(ctx context.Context, path string, in, out any) error
	Patch(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string, out any) error
	Jar() *Jar
	BaseURL() *url.URL
}
