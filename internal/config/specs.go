// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// Session persistence backends accepted by SESSION_STORE.
const (
	SessionStoreMemory   = "memory"
	SessionStoreFile     = "file"
	SessionStoreRedis    = "redis"
	SessionStorePostgres = "postgres"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"false"`

	BackendURL     string        `envconfig:"estate_backend_url" required:"true"`
	BackendTimeout time.Duration `envconfig:"estate_backend_timeout" default:"15s"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	SessionStore   string        `envconfig:"session_store" default:"memory"`
	SessionTTL     time.Duration `envconfig:"session_ttl" default:"168h"`
	CookieSecure   bool          `envconfig:"cookie_secure" default:"true"`
	StateDir       string        `envconfig:"state_dir" default:"/var/lib/estate-portal"`
	UIDir          string        `envconfig:"ui_dir"`
	AllowedOrigins []string      `envconfig:"allowed_origins" default:"*"`
	AuthRateLimit  float64       `envconfig:"auth_rate_limit" default:"5"`
	AuthRateBurst  int           `envconfig:"auth_rate_burst" default:"10"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For and X-Real-IP.
	TrustProxyHeaders bool `envconfig:"trust_proxy_headers" default:"false"`

	RedisURL string `envconfig:"redis_url"`

	DSN string `envconfig:"DSN"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`
}
