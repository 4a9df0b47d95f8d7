// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package estate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/estate-portal/internal/backend"
	"github.com/canonical/estate-portal/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package estate -destination ./mock_backend.go -source=../../internal/backend/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package estate -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package estate -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package estate -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func newTestService(ctrl *gomock.Controller) (*Service, *MockClientInterface) {
	mockBackend := NewMockClientInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).AnyTimes().
		DoAndReturn(func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		})
	mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()

	return NewService(mockBackend, mockTracer, NewMockMonitorInterface(ctrl), mockLogger), mockBackend
}

func respond(body string) func(context.Context, string, any) error {
	return func(_ context.Context, _ string, out any) error {
		return json.Unmarshal([]byte(body), out)
	}
}

func TestService_ListDues(t *testing.T) {
	testCases := []struct {
		name          string
		body          string
		err           error
		expectedLen   int
		expectedFirst types.Due
		expectedErr   bool
	}{
		{
			name:          "plain array with decimal strings",
			body:          `[{"id": 4, "title": "Security levy", "amount": "5000.00", "due_date": "2026-03-31", "latest_payment_status": null}]`,
			expectedLen:   1,
			expectedFirst: types.Due{ID: "4", Title: "Security levy", Amount: "5000.00", DueDate: "2026-03-31"},
		},
		{
			name:          "paginated",
			body:          `{"count": 2, "next": null, "previous": null, "results": [{"id": "7", "title": "Water", "amount": 1200}, {"id": 8, "title": "Waste", "amount": 800}]}`,
			expectedLen:   2,
			expectedFirst: types.Due{ID: "7", Title: "Water", Amount: "1200"},
		},
		{
			name:        "empty body",
			body:        `null`,
			expectedLen: 0,
		},
		{
			name:        "backend error",
			err:         &backend.APIError{Status: http.StatusForbidden, Message: "Admin access required"},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, mockBackend := newTestService(ctrl)

			call := mockBackend.EXPECT().Get(gomock.Any(), "/api/dues/", gomock.Any())
			if tc.err != nil {
				call.Return(tc.err)
			} else {
				call.DoAndReturn(respond(tc.body))
			}

			dues, err := s.ListDues(context.Background())

			if tc.expectedErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if Message(err) != "Admin access required" {
					t.Errorf("expected the backend message, got %q", Message(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dues == nil || len(dues) != tc.expectedLen {
				t.Fatalf("expected %d dues, got %v", tc.expectedLen, dues)
			}
			if tc.expectedLen > 0 && dues[0] != tc.expectedFirst {
				t.Errorf("expected %+v, got %+v", tc.expectedFirst, dues[0])
			}
		})
	}
}

func TestService_Mutations(t *testing.T) {
	testCases := []struct {
		name       string
		setupMocks func(*MockClientInterface)
		call       func(*Service) error
	}{
		{
			name: "approve resident",
			setupMocks: func(m *MockClientInterface) {
				m.EXPECT().Post(gomock.Any(), "/api/admin/approve-resident/12/", nil, nil).Return(nil)
			},
			call: func(s *Service) error { return s.ApproveResident(context.Background(), "12") },
		},
		{
			name: "delete resident",
			setupMocks: func(m *MockClientInterface) {
				m.EXPECT().Delete(gomock.Any(), "/api/admin/delete-resident/12/", nil).Return(nil)
			},
			call: func(s *Service) error { return s.DeleteResident(context.Background(), " 12 ") },
		},
		{
			name: "approve payment",
			setupMocks: func(m *MockClientInterface) {
				m.EXPECT().Post(gomock.Any(), "/api/admin/approve-payment/5/", types.PaymentReview{AdminNotes: "ok"}, nil).Return(nil)
			},
			call: func(s *Service) error { return s.ApprovePayment(context.Background(), "5", "ok") },
		},
		{
			name: "reject payment",
			setupMocks: func(m *MockClientInterface) {
				m.EXPECT().Post(gomock.Any(), "/api/admin/reject-payment/5/", types.PaymentReview{AdminNotes: "blurry receipt"}, nil).Return(nil)
			},
			call: func(s *Service) error { return s.RejectPayment(context.Background(), "5", "blurry receipt") },
		},
		{
			name: "delete due",
			setupMocks: func(m *MockClientInterface) {
				m.EXPECT().Delete(gomock.Any(), "/api/dues/3/", nil).Return(nil)
			},
			call: func(s *Service) error { return s.DeleteDue(context.Background(), "3") },
		},
		{
			name: "delete announcement",
			setupMocks: func(m *MockClientInterface) {
				m.EXPECT().Delete(gomock.Any(), "/api/announcements/9/", nil).Return(nil)
			},
			call: func(s *Service) error { return s.DeleteAnnouncement(context.Background(), "9") },
		},
		{
			name: "disable staff",
			setupMocks: func(m *MockClientInterface) {
				m.EXPECT().Patch(gomock.Any(), "/api/artisans-domestics/2/disable/", types.StaffRemoval{RemovalReason: "moved out"}, nil).Return(nil)
			},
			call: func(s *Service) error { return s.DisableStaff(context.Background(), "2", "moved out") },
		},
		{
			name: "cancel subscription",
			setupMocks: func(m *MockClientInterface) {
				m.EXPECT().Post(gomock.Any(), "/api/subscription/cancel/", nil, nil).Return(nil)
			},
			call: func(s *Service) error { return s.CancelSubscription(context.Background()) },
		},
		{
			name: "mark notification read",
			setupMocks: func(m *MockClientInterface) {
				m.EXPECT().Post(gomock.Any(), "/api/notifications/44/read/", nil, nil).Return(nil)
			},
			call: func(s *Service) error { return s.MarkNotificationRead(context.Background(), "44") },
		},
		{
			name: "mark all notifications read",
			setupMocks: func(m *MockClientInterface) {
				m.EXPECT().Post(gomock.Any(), "/api/notifications/mark_all_read/", nil, nil).Return(nil)
			},
			call: func(s *Service) error { return s.MarkAllNotificationsRead(context.Background()) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, mockBackend := newTestService(ctrl)
			tc.setupMocks(mockBackend)

			if err := tc.call(s); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_RejectsInvalidIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no backend expectations: nothing may be sent
	s, _ := newTestService(ctrl)

	for _, id := range []string{"", "0", "-1", "abc", "1/../2", "3?x=1"} {
		if err := s.ApproveResident(context.Background(), id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("%q: expected ErrInvalidID, got %v", id, err)
		}
		if _, err := s.GetEstate(context.Background(), id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("%q: expected ErrInvalidID, got %v", id, err)
		}
	}
}

func TestService_CreateDue(t *testing.T) {
	testCases := []struct {
		name        string
		due         types.NewDue
		setupMocks  func(*MockClientInterface)
		expectedErr error
	}{
		{
			name: "created",
			due:  types.NewDue{Title: "Levy", Amount: "2500", DueDate: "2026-04-30"},
			setupMocks: func(m *MockClientInterface) {
				m.EXPECT().Post(gomock.Any(), "/api/dues/", types.NewDue{Title: "Levy", Amount: "2500", DueDate: "2026-04-30"}, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, _, out any) error {
						return json.Unmarshal([]byte(`{"id": 11, "title": "Levy", "amount": "2500.00", "due_date": "2026-04-30"}`), out)
					})
			},
		},
		{
			name:        "missing title",
			due:         types.NewDue{Amount: "2500", DueDate: "2026-04-30"},
			setupMocks:  func(*MockClientInterface) {},
			expectedErr: ErrInvalidInput,
		},
		{
			name:        "amount not a number",
			due:         types.NewDue{Title: "Levy", Amount: "lots", DueDate: "2026-04-30"},
			setupMocks:  func(*MockClientInterface) {},
			expectedErr: ErrInvalidInput,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, mockBackend := newTestService(ctrl)
			tc.setupMocks(mockBackend)

			due, err := s.CreateDue(context.Background(), tc.due)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if due.ID != "11" || due.Amount != "2500.00" {
				t.Errorf("unexpected due %+v", due)
			}
		})
	}
}

func TestService_VerifyVisitorCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockBackend := newTestService(ctrl)

	mockBackend.EXPECT().Post(gomock.Any(), "/api/visitor-codes/verify/", map[string]string{"code": "A1B2C3"}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _, out any) error {
			return json.Unmarshal([]byte(`{"message": "Code verified successfully", "visitor_name": "Tunde", "resident": "ada@example.com", "estate": "Palm Grove"}`), out)
		})

	v, err := s.VerifyVisitorCode(context.Background(), " A1B2C3 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.VisitorName != "Tunde" || v.Estate != "Palm Grove" {
		t.Errorf("unexpected verification %+v", v)
	}

	if _, err := s.VerifyVisitorCode(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for an empty code, got %v", err)
	}
}

func TestService_SubscriptionStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockBackend := newTestService(ctrl)

	mockBackend.EXPECT().Get(gomock.Any(), "/api/subscription/status/", gomock.Any()).
		DoAndReturn(respond(`{"status": "active", "next_billing_date": "2026-05-01", "can_cancel": true, "plan": {"name": "Monthly", "amount": "15000.00", "interval": "monthly"}}`))

	st, err := s.SubscriptionStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.Active() || !st.CanCancel || st.Plan == nil || st.Plan.Amount != "15000.00" {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestMessage(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "backend reason", err: &backend.APIError{Status: 400, Message: "Code is expired or already used"}, expected: "Code is expired or already used"},
		{name: "transport", err: &backend.TransportError{Method: "GET", Path: "/api/dues/", Err: context.DeadlineExceeded}, expected: "Could not reach the estate service."},
		{name: "local", err: ErrInvalidID, expected: "invalid id"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Message(tc.err); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
