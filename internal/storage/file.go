// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/tracing"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
	fileExt  = ".json"
)

var _ PersisterInterface = (*FileStore)(nil)

// FileStore keeps one file per key under a private directory.
type FileStore struct {
	dir string
	mu  sync.Mutex

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+fileExt)
}

func (f *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	_, span := f.tracer.Start(ctx, "storage.FileStore.Load")
	defer span.End()

	if err := validateKey(key); err != nil {
		return nil, err
	}

	v, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}

	return v, nil
}

func (f *FileStore) Save(ctx context.Context, key string, value []byte) error {
	return f.SaveAll(ctx, map[string][]byte{key: value})
}

// SaveAll writes each entry atomically. Entries are independent files, so a failure can
// leave earlier entries written.
func (f *FileStore) SaveAll(ctx context.Context, entries map[string][]byte) error {
	_, span := f.tracer.Start(ctx, "storage.FileStore.SaveAll")
	defer span.End()

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, dirMode); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	for k, v := range entries {
		if err := validateKey(k); err != nil {
			return err
		}

		if err := f.writeAtomic(f.path(k), v); err != nil {
			return fmt.Errorf("failed to write %q: %w", k, err)
		}
	}

	return nil
}

func (f *FileStore) writeAtomic(path string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return err
	}

	name := tmp.Name()
	defer os.Remove(name)

	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return err
	}

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(name, path)
}

func (f *FileStore) Delete(ctx context.Context, keys ...string) error {
	_, span := f.tracer.Start(ctx, "storage.FileStore.Delete")
	defer span.End()

	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for _, k := range keys {
		err := os.Remove(f.path(k))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %q: %w", k, err))
		}
	}

	return errors.Join(errs...)
}

func (f *FileStore) Ping(ctx context.Context) error {
	_, span := f.tracer.Start(ctx, "storage.FileStore.Ping")
	defer span.End()

	info, err := os.Stat(f.dir)
	if errors.Is(err, fs.ErrNotExist) {
		// created on first write
		return nil
	}
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", f.dir, ErrClosed)
	}

	return nil
}

func (f *FileStore) Dir() string {
	return f.dir
}

func NewFileStore(dir string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *FileStore {
	f := new(FileStore)

	f.dir = dir

	f.tracer = tracer
	f.monitor = monitor
	f.logger = logger

	return f
}
