// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/tracing"
)

const (
	redisKeyPrefix = "estate-portal:"

	redisDialTimeout  = 3 * time.Second
	redisReadTimeout  = 2 * time.Second
	redisWriteTimeout = 2 * time.Second
	redisPingTimeout  = 2 * time.Second
)

var _ PersisterInterface = (*RedisStore)(nil)

// RedisStore keeps values under estate-portal:<key>, refreshing the TTL on every write.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (r *RedisStore) key(k string) string {
	return redisKeyPrefix + k
}

func (r *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, span := r.tracer.Start(ctx, "storage.RedisStore.Load")
	defer span.End()

	if err := validateKey(key); err != nil {
		return nil, err
	}

	v, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}

	return v, nil
}

func (r *RedisStore) Save(ctx context.Context, key string, value []byte) error {
	return r.SaveAll(ctx, map[string][]byte{key: value})
}

func (r *RedisStore) SaveAll(ctx context.Context, entries map[string][]byte) error {
	ctx, span := r.tracer.Start(ctx, "storage.RedisStore.SaveAll")
	defer span.End()

	for k := range entries {
		if err := validateKey(k); err != nil {
			return err
		}
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, r.key(k), v, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set keys: %w", err)
	}

	return nil
}

func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	ctx, span := r.tracer.Start(ctx, "storage.RedisStore.Delete")
	defer span.End()

	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, r.key(k))
	}

	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}

	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "storage.RedisStore.Ping")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	err := r.client.Ping(ctx).Err()

	available := 1.0
	if err != nil {
		available = 0
	}
	if mErr := r.monitor.SetDependencyAvailability(map[string]string{"component": "redis"}, available); mErr != nil {
		r.logger.Debugf("failed to set dependency availability: %v", mErr)
	}

	if err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *RedisStore {
	r := new(RedisStore)

	r.client = client
	r.ttl = ttl

	r.tracer = tracer
	r.monitor = monitor
	r.logger = logger

	return r
}

// NewRedisClient parses a redis:// URL and checks connectivity before returning the client.
func NewRedisClient(ctx context.Context, redisURL string, logger logging.LoggerInterface) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	options.PoolSize = 10
	options.MinIdleConns = 2
	options.MaxIdleConns = 5

	options.DialTimeout = redisDialTimeout
	options.ReadTimeout = redisReadTimeout
	options.WriteTimeout = redisWriteTimeout

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Infof("redis client connected to %s", options.Addr)

	return client, nil
}
