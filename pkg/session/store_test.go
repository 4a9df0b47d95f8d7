// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/estate-portal/internal/identity"
	"github.com/canonical/estate-portal/internal/storage"
)

//go:generate mockgen -build_flags=--mod=mod -package session -destination ./mock_storage.go -source=../../internal/storage/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package session -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package session -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package session -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func passthroughTracer(ctrl *gomock.Controller) *MockTracingInterface {
	mockTracer := NewMockTracingInterface(ctrl)
	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).AnyTimes().
		DoAndReturn(func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		})
	return mockTracer
}

func TestStore_Hydrate(t *testing.T) {
	resident := identity.Identity{
		ID:                 "7",
		DisplayName:        "Ada Obi",
		Email:              "ada@example.com",
		Role:               identity.RoleResident,
		EstateID:           "3",
		SubscriptionActive: true,
	}

	testCases := []struct {
		name             string
		setupMocks       func(*MockPersisterInterface, *MockLoggerInterface)
		expectedAuth     bool
		expectedIdentity identity.Identity
	}{
		{
			name: "nothing persisted",
			setupMocks: func(p *MockPersisterInterface, _ *MockLoggerInterface) {
				p.EXPECT().Load(gomock.Any(), UserKey).Times(2).Return(nil, storage.ErrNotFound)
			},
		},
		{
			name: "valid identity",
			setupMocks: func(p *MockPersisterInterface, _ *MockLoggerInterface) {
				p.EXPECT().Load(gomock.Any(), UserKey).Times(2).
					Return([]byte(`{"id":"7","name":"Ada Obi","email":"ada@example.com","role":"resident","estateId":"3","subscription_active":true}`), nil)
			},
			expectedAuth:     true,
			expectedIdentity: resident,
		},
		{
			name: "malformed json",
			setupMocks: func(p *MockPersisterInterface, l *MockLoggerInterface) {
				p.EXPECT().Load(gomock.Any(), UserKey).Times(2).Return([]byte(`{"id":`), nil)
				l.EXPECT().Warnf(gomock.Any(), gomock.Any()).Times(2)
			},
		},
		{
			name: "storage unavailable",
			setupMocks: func(p *MockPersisterInterface, l *MockLoggerInterface) {
				p.EXPECT().Load(gomock.Any(), UserKey).Times(2).Return(nil, errors.New("connection refused"))
				l.EXPECT().Warnf(gomock.Any(), gomock.Any()).Times(2)
			},
		},
		{
			name: "unknown role still hydrates",
			setupMocks: func(p *MockPersisterInterface, _ *MockLoggerInterface) {
				p.EXPECT().Load(gomock.Any(), UserKey).Times(2).Return([]byte(`{"id":"1","role":"janitor"}`), nil)
			},
			expectedAuth:     true,
			expectedIdentity: identity.Identity{ID: "1", Role: identity.RoleUnknown, SubscriptionActive: true},
		},
		{
			name: "stored without subscription flag counts as active",
			setupMocks: func(p *MockPersisterInterface, _ *MockLoggerInterface) {
				p.EXPECT().Load(gomock.Any(), UserKey).Times(2).
					Return([]byte(`{"id":"7","name":"Ada Obi","email":"ada@example.com","role":"resident","estateId":"3"}`), nil)
			},
			expectedAuth:     true,
			expectedIdentity: resident,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockPersister := NewMockPersisterInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			tc.setupMocks(mockPersister, mockLogger)

			s := NewStore(mockPersister, passthroughTracer(ctrl), NewMockMonitorInterface(ctrl), mockLogger)

			if s.Hydrated() {
				t.Fatalf("expected store not to be hydrated before Hydrate")
			}

			// hydrating twice must give the same result and never write back
			for i := 0; i < 2; i++ {
				if got := s.Hydrate(context.Background()); got != tc.expectedAuth {
					t.Errorf("expected authenticated %v, got %v", tc.expectedAuth, got)
				}
			}

			if !s.Hydrated() {
				t.Errorf("expected store to be hydrated")
			}

			current, ok := s.Current()
			if ok != tc.expectedAuth || s.IsAuthenticated() != tc.expectedAuth {
				t.Errorf("expected authenticated %v, got %v", tc.expectedAuth, ok)
			}
			if current != tc.expectedIdentity {
				t.Errorf("expected identity %+v, got %+v", tc.expectedIdentity, current)
			}
		})
	}
}

func TestStore_Set(t *testing.T) {
	admin := identity.Identity{ID: "1", Email: "admin@example.com", Role: identity.RoleAdmin, SubscriptionActive: false}

	testCases := []struct {
		name        string
		saveErr     error
		expectedErr bool
	}{
		{name: "persisted"},
		{name: "degraded storage keeps memory", saveErr: errors.New("disk full"), expectedErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockPersister := NewMockPersisterInterface(ctrl)
			mockPersister.EXPECT().Save(gomock.Any(), UserKey, []byte(`{"id":"1","name":"","email":"admin@example.com","role":"admin","subscription_active":false}`)).Return(tc.saveErr)

			s := NewStore(mockPersister, passthroughTracer(ctrl), NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl))

			err := s.Set(context.Background(), admin)
			if tc.expectedErr != (err != nil) {
				t.Errorf("unexpected error state: %v", err)
			}
			if tc.saveErr != nil && !errors.Is(err, tc.saveErr) {
				t.Errorf("expected error to wrap %v, got %v", tc.saveErr, err)
			}

			current, ok := s.Current()
			if !ok || current != admin {
				t.Errorf("expected in-memory identity %+v, got %+v", admin, current)
			}
		})
	}
}

func TestStore_Clear(t *testing.T) {
	testCases := []struct {
		name        string
		deleteErr   error
		expectedErr bool
	}{
		{name: "removed"},
		{name: "degraded storage still clears memory", deleteErr: errors.New("read only"), expectedErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockPersister := NewMockPersisterInterface(ctrl)
			mockPersister.EXPECT().Save(gomock.Any(), UserKey, gomock.Any()).Return(nil)
			mockPersister.EXPECT().Delete(gomock.Any(), UserKey).Return(tc.deleteErr)

			s := NewStore(mockPersister, passthroughTracer(ctrl), NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl))
			_ = s.Set(context.Background(), identity.Identity{ID: "9", Role: identity.RoleSecurity})

			err := s.Clear(context.Background())
			if tc.expectedErr != (err != nil) {
				t.Errorf("unexpected error state: %v", err)
			}

			if _, ok := s.Current(); ok || s.IsAuthenticated() {
				t.Errorf("expected store to be unauthenticated after Clear")
			}
		})
	}
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	p := storage.NewMemoryStore()
	i := identity.Identity{ID: "12", DisplayName: "Gate Keeper", Role: identity.RoleSecurity, EstateID: "4", SubscriptionActive: true}

	first := NewStore(p, passthroughTracer(ctrl), NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl))
	if err := first.Set(ctx, i); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := NewStore(p, passthroughTracer(ctrl), NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl))
	if !second.Hydrate(ctx) {
		t.Fatalf("expected second store to hydrate")
	}

	if current, _ := second.Current(); current != i {
		t.Errorf("expected %+v, got %+v", i, current)
	}
}
