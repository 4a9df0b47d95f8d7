// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/estate-portal/internal/backend"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/storage"
	"github.com/canonical/estate-portal/internal/tracing"
	"github.com/canonical/estate-portal/pkg/access"
	"github.com/canonical/estate-portal/pkg/authentication"
	"github.com/canonical/estate-portal/pkg/estate"
	"github.com/canonical/estate-portal/pkg/session"
)

// cliSessionID names the single session of the terminal client.
const cliSessionID = "cli"

// clientApp is everything a client command needs, bound to the persisted session.
type clientApp struct {
	session *session.Session
	gateway *authentication.Gateway
	estate  *estate.Service

	logger logging.LoggerInterface
}

// getClient opens the persisted session and returns a closure that saves the backend
// cookies once the command is done.
func getClient(ctx context.Context) (func() error, *clientApp, error) {
	if backendURL == "" {
		return nil, nil, errors.New("no backend configured, set --backend-url or ESTATE_BACKEND_URL")
	}

	var logger logging.LoggerInterface = logging.NewNoopLogger()
	if logLevel != "" {
		logger = logging.NewLogger(logLevel)
	}

	monitor := monitoring.NewNoopMonitor("estate-portal", logger)
	tracer := tracing.NewNoopTracer()

	c, err := backend.NewClient(backend.Config{BaseURL: backendURL}, tracer, monitor, logger)
	if err != nil {
		return nil, nil, err
	}

	s := session.Open(ctx, cliSessionID, storage.NewFileStore(stateDir, tracer, monitor, logger), tracer, monitor, logger)
	bound := c.WithJar(s.Jar)

	app := &clientApp{
		session: s,
		gateway: authentication.NewGateway(bound, s.Store, tracer, monitor, logger),
		estate:  estate.NewService(bound, tracer, monitor, logger),
		logger:  logger,
	}

	closer := func() error {
		defer logger.Sync()

		if err := s.Flush(context.Background()); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	}

	return closer, app, nil
}

// gate runs the access gate for the screen named name. Anything but Render is
// returned as a *redirectError.
func (a *clientApp) gate(name string, params map[string]string) error {
	route, ok := access.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown screen %q", name)
	}

	path := route.Path(params)
	i, authenticated := a.session.Store.Current()

	d := route.Decide(path, a.session.Store.Hydrated(), i, authenticated)
	if d.Outcome == access.Render {
		return nil
	}

	return &redirectError{Path: path, Decision: d}
}

// withClient runs fn with an open session and saves it afterwards.
func withClient(ctx context.Context, fn func(*clientApp) error) (err error) {
	closer, app, err := getClient(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if cErr := closer(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return fn(app)
}
