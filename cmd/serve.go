// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/canonical/estate-portal/internal/backend"
	"github.com/canonical/estate-portal/internal/config"
	"github.com/canonical/estate-portal/internal/db"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/monitoring/prometheus"
	"github.com/canonical/estate-portal/internal/storage"
	"github.com/canonical/estate-portal/internal/tracing"
	"github.com/canonical/estate-portal/pkg/access"
	"github.com/canonical/estate-portal/pkg/authentication"
	"github.com/canonical/estate-portal/pkg/session"
	"github.com/canonical/estate-portal/pkg/status"
	"github.com/canonical/estate-portal/pkg/web"
)

const purgeInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web portal",
	Long:  `Launch the web portal, list of environment variables is available in the readme`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// persister builds the session backend named by SESSION_STORE. The returned closure
// releases its connections.
func persister(ctx context.Context, specs *config.EnvSpec, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (storage.PersisterInterface, func(), error) {
	switch specs.SessionStore {
	case config.SessionStoreMemory:
		logger.Info("Sessions are kept in memory and lost on restart")
		return storage.NewMemoryStore(), func() {}, nil
	case config.SessionStoreFile:
		return storage.NewFileStore(specs.StateDir, tracer, monitor, logger), func() {}, nil
	case config.SessionStoreRedis:
		client, err := storage.NewRedisClient(ctx, specs.RedisURL, logger)
		if err != nil {
			return nil, nil, err
		}

		return storage.NewRedisStore(client, specs.SessionTTL, tracer, monitor, logger), func() { _ = client.Close() }, nil
	case config.SessionStorePostgres:
		dbClient, err := db.NewDBClient(
			db.Config{
				DSN:             specs.DSN,
				MaxConns:        specs.DBMaxConns,
				MinConns:        specs.DBMinConns,
				MaxConnLifetime: specs.DBMaxConnLifetime,
				MaxConnIdleTime: specs.DBMaxConnIdleTime,
				TracingEnabled:  specs.TracingEnabled,
			},
			tracer,
			monitor,
			logger,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create database client: %v", err)
		}

		s := storage.NewSQLStore(dbClient, specs.SessionTTL, tracer, monitor, logger)
		go purge(ctx, s, logger)

		return s, dbClient.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown session store %q", specs.SessionStore)
}

// purge drops expired session rows until ctx is done.
func purge(ctx context.Context, s *storage.SQLStore, logger logging.LoggerInterface) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Purge(ctx)
			if err != nil {
				logger.Errorf("session purge failed: %v", err)
				continue
			}
			logger.Debugf("purged %d expired session entries", n)
		}
	}
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	logger := logging.NewLogger(specs.LogLevel)
	logger.Debugf("env vars: %v", specs)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("estate-portal", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	p, closePersister, err := persister(ctx, specs, tracer, monitor, logger)
	if err != nil {
		return err
	}
	defer closePersister()

	c, err := backend.NewClient(backend.Config{BaseURL: specs.BackendURL, Timeout: specs.BackendTimeout}, tracer, monitor, logger)
	if err != nil {
		return err
	}

	sessions := session.NewManager(
		p,
		session.CookieOptions{Secure: specs.CookieSecure, TTL: specs.SessionTTL},
		tracer,
		monitor,
		logger,
	)

	gate := access.NewGate(tracer, monitor, logger)
	gateway := authentication.NewGateway(c, nil, tracer, monitor, logger)
	limiter := authentication.NewRateLimiter(specs.AuthRateLimit, specs.AuthRateBurst, logger)

	router := web.NewRouter(
		authentication.NewAPI(gateway, c, sessions, limiter, tracer, monitor, logger),
		sessions,
		gate,
		web.NewProxy(c, tracer, monitor, logger),
		web.NewScreens(specs.UIDir, gate, tracer, monitor, logger),
		map[string]status.HealthCheckerInterface{"sessions": sessions},
		specs.AllowedOrigins,
		specs.TrustProxyHeaders,
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			sig <- os.Interrupt
		}
	}()

	<-sig

	// Create a deadline to wait for.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	return serverError
}

func main() {
	if err := serve(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
