// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/tracing"
)

const (
	CSRFHeader    = "X-CSRFToken"
	csrfPrimePath = "/api/csrf-cookie/"

	defaultTimeout = 15 * time.Second
	maxBodySize    = 4 << 20
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Transport is the base round tripper, wrapped with tracing. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

var _ ClientInterface = (*Client)(nil)

type Client struct {
	baseURL *url.URL
	origin  string
	timeout time.Duration

	transport http.RoundTripper
	http      *http.Client
	jar       *Jar

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (c *Client) Jar() *Jar {
	return c.jar
}

func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Transport is the traced round tripper shared by every jar bound to this client.
func (c *Client) Transport() http.RoundTripper {
	return c.transport
}

// WithJar returns a client sharing the transport and configuration but bound to j.
func (c *Client) WithJar(j *Jar) *Client {
	n := *c
	n.jar = j
	n.http = &http.Client{Transport: c.transport, Jar: j}

	return &n
}

// PrimeCSRF asks the backend for a fresh csrftoken cookie.
func (c *Client) PrimeCSRF(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "backend.Client.PrimeCSRF")
	defer span.End()

	if _, err := c.do(ctx, http.MethodGet, csrfPrimePath, nil); err != nil {
		return err
	}

	if c.jar.Get(CSRFCookieName) == "" {
		return ErrCSRFUnavailable
	}

	return nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends in as JSON and decodes a 2xx answer into out when out is not nil.
// Mutating requests carry the CSRF token, and a CSRF rejection is retried once with a fresh token.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	ctx, span := c.tracer.Start(ctx, "backend.Client.Do")
	defer span.End()

	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	data, err := c.do(ctx, method, path, body)

	if isMutating(method) && isCSRFRejection(err) {
		c.logger.Debugf("csrf token rejected on %s %s, retrying with a fresh token", method, path)

		c.jar.Remove(CSRFCookieName)
		if pErr := c.PrimeCSRF(ctx); pErr == nil {
			data, err = c.do(ctx, method, path, body)
		}
	}

	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if isMutating(method) {
		c.ensureCSRF(ctx)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if isMutating(method) {
		if token := c.jar.Get(CSRFCookieName); token != "" {
			req.Header.Set(CSRFHeader, token)
		}
		req.Header.Set("Referer", c.origin+"/")
		req.Header.Set("Origin", c.origin)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.setAvailability(0)
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	c.setAvailability(1)
	c.observe(path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: data, Message: ExtractMessage(data)}
	}

	return data, nil
}

// ensureCSRF primes the token when the jar has none. Failures are only logged,
// the backend is left to reject the request.
func (c *Client) ensureCSRF(ctx context.Context) {
	if c.jar.Get(CSRFCookieName) != "" {
		return
	}

	if _, err := c.do(ctx, http.MethodGet, csrfPrimePath, nil); err != nil {
		c.logger.Warnf("failed to fetch csrf token: %v", err)
		return
	}

	if c.jar.Get(CSRFCookieName) == "" {
		c.logger.Warn("no csrf token available")
	}
}

// resolve keeps any path prefix of the base url.
func (c *Client) resolve(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL.String() + path
}

func (c *Client) setAvailability(v float64) {
	if err := c.monitor.SetDependencyAvailability(map[string]string{"component": "estate-backend"}, v); err != nil {
		c.logger.Debugf("failed to set dependency availability: %v", err)
	}
}

func (c *Client) observe(path string, status int, d time.Duration) {
	tags := map[string]string{"route": "backend " + routeOf(path), "status": strconv.Itoa(status)}

	if err := c.monitor.SetResponseTimeMetric(tags, d.Seconds()); err != nil {
		c.logger.Debugf("failed to set response time metric: %v", err)
	}
}

// routeOf drops the query string and numeric path segments to keep metric cardinality bounded.
func routeOf(path string) string {
	path, _, _ = strings.Cut(path, "?")

	segments := strings.Split(path, "/")
	for i, s := range segments {
		if _, err := strconv.Atoi(s); err == nil {
			segments[i] = "{id}"
		}
	}

	return strings.Join(segments, "/")
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}

	return false
}

func isCSRFRejection(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		return false
	}

	var body struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(apiErr.Body, &body) != nil {
		return false
	}

	return strings.Contains(body.Detail, "CSRF")
}

// NewClient builds a client with an empty cookie jar.
func NewClient(cfg Config, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}

	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host are required", cfg.BaseURL)
	}

	c := new(Client)

	c.baseURL = base
	c.origin = base.Scheme + "://" + base.Host

	c.timeout = cfg.Timeout
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}

	c.transport = tracing.NewTransport(cfg.Transport)
	c.jar = NewJar()
	c.http = &http.Client{Transport: c.transport, Jar: c.jar}

	c.tracer = tracer
	c.monitor = monitor
	c.logger = logger

	return c, nil
}
