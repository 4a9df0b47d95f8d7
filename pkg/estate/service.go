// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package estate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/canonical/estate-portal/internal/backend"
	"github.com/canonical/estate-portal/internal/logging"
	"github.com/canonical/estate-portal/internal/monitoring"
	"github.com/canonical/estate-portal/internal/tracing"
	"github.com/canonical/estate-portal/internal/types"
)

// ErrInvalidID is returned before any request when an identifier is not a positive integer.
var ErrInvalidID = errors.New("invalid id")

var _ ServiceInterface = (*Service)(nil)

// Service reads and changes estate data through the backend. Every rule is enforced
// by the backend, nothing is cached here.
type Service struct {
	backend backend.ClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(c backend.ClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	return &Service{
		backend: c,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (s *Service) ListEstates(ctx context.Context) ([]types.Estate, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ListEstates")
	defer span.End()

	return list[types.Estate](ctx, s, "estates", "/api/estates/")
}

func (s *Service) GetEstate(ctx context.Context, id string) (*types.Estate, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.GetEstate")
	defer span.End()

	p, err := path("/api/estates/%s/", id)
	if err != nil {
		return nil, err
	}

	e := new(types.Estate)
	if err := s.backend.Get(ctx, p, e); err != nil {
		return nil, fmt.Errorf("failed to get estate %s: %w", id, err)
	}

	return e, nil
}

func (s *Service) ListLeadership(ctx context.Context, estateID string) ([]types.Leader, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ListLeadership")
	defer span.End()

	p, err := path("/api/estates/%s/leadership/", estateID)
	if err != nil {
		return nil, err
	}

	return list[types.Leader](ctx, s, "leadership", p)
}

func (s *Service) ListResidents(ctx context.Context) ([]types.Resident, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ListResidents")
	defer span.End()

	return list[types.Resident](ctx, s, "residents", "/api/admin/residents/")
}

func (s *Service) ListPendingResidents(ctx context.Context) ([]types.Resident, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ListPendingResidents")
	defer span.End()

	return list[types.Resident](ctx, s, "pending residents", "/api/admin/pending-residents/")
}

func (s *Service) ApproveResident(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ApproveResident")
	defer span.End()

	return s.post(ctx, "approve resident", "/api/admin/approve-resident/%s/", id, nil)
}

func (s *Service) DeleteResident(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "estate.Service.DeleteResident")
	defer span.End()

	return s.delete(ctx, "delete resident", "/api/admin/delete-resident/%s/", id)
}

func (s *Service) ListDues(ctx context.Context) ([]types.Due, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ListDues")
	defer span.End()

	return list[types.Due](ctx, s, "dues", "/api/dues/")
}

func (s *Service) CreateDue(ctx context.Context, due types.NewDue) (*types.Due, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.CreateDue")
	defer span.End()

	if strings.TrimSpace(due.Title) == "" || due.Amount == "" || due.DueDate == "" {
		return nil, fmt.Errorf("%w: title, amount and due date are required", ErrInvalidInput)
	}

	if _, err := due.Amount.Float64(); err != nil {
		return nil, fmt.Errorf("%w: amount %q is not a number", ErrInvalidInput, due.Amount)
	}

	created := new(types.Due)
	if err := s.backend.Post(ctx, "/api/dues/", due, created); err != nil {
		return nil, fmt.Errorf("failed to create due: %w", err)
	}

	return created, nil
}

func (s *Service) DeleteDue(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "estate.Service.DeleteDue")
	defer span.End()

	return s.delete(ctx, "delete due", "/api/dues/%s/", id)
}

func (s *Service) ListPayments(ctx context.Context) ([]types.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ListPayments")
	defer span.End()

	return list[types.Payment](ctx, s, "payments", "/api/payments/")
}

func (s *Service) ApprovePayment(ctx context.Context, id, notes string) error {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ApprovePayment")
	defer span.End()

	return s.post(ctx, "approve payment", "/api/admin/approve-payment/%s/", id, types.PaymentReview{AdminNotes: notes})
}

func (s *Service) RejectPayment(ctx context.Context, id, notes string) error {
	ctx, span := s.tracer.Start(ctx, "estate.Service.RejectPayment")
	defer span.End()

	return s.post(ctx, "reject payment", "/api/admin/reject-payment/%s/", id, types.PaymentReview{AdminNotes: notes})
}

func (s *Service) ListAlerts(ctx context.Context) ([]types.Alert, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ListAlerts")
	defer span.End()

	return list[types.Alert](ctx, s, "alerts", "/api/alert/")
}

func (s *Service) SendAlert(ctx context.Context, alert types.NewAlert) (*types.Alert, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.SendAlert")
	defer span.End()

	if strings.TrimSpace(alert.AlertType) == "" {
		return nil, fmt.Errorf("%w: alert type is required", ErrInvalidInput)
	}

	sent := new(types.Alert)
	if err := s.backend.Post(ctx, "/api/alert/", alert, sent); err != nil {
		return nil, fmt.Errorf("failed to send alert: %w", err)
	}

	return sent, nil
}

func (s *Service) ListAnnouncements(ctx context.Context) ([]types.Announcement, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ListAnnouncements")
	defer span.End()

	return list[types.Announcement](ctx, s, "announcements", "/api/announcements/")
}

func (s *Service) CreateAnnouncement(ctx context.Context, a types.NewAnnouncement) (*types.Announcement, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.CreateAnnouncement")
	defer span.End()

	if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Message) == "" {
		return nil, fmt.Errorf("%w: title and message are required", ErrInvalidInput)
	}

	created := new(types.Announcement)
	if err := s.backend.Post(ctx, "/api/announcements/", a, created); err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}

	return created, nil
}

func (s *Service) DeleteAnnouncement(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "estate.Service.DeleteAnnouncement")
	defer span.End()

	return s.delete(ctx, "delete announcement", "/api/announcements/%s/", id)
}

func (s *Service) ListStaff(ctx context.Context) ([]types.Staff, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ListStaff")
	defer span.End()

	return list[types.Staff](ctx, s, "artisans and domestic staff", "/api/artisans-domestics/")
}

func (s *Service) DisableStaff(ctx context.Context, id, reason string) error {
	ctx, span := s.tracer.Start(ctx, "estate.Service.DisableStaff")
	defer span.End()

	p, err := path("/api/artisans-domestics/%s/disable/", id)
	if err != nil {
		return err
	}

	if err := s.backend.Patch(ctx, p, types.StaffRemoval{RemovalReason: reason}, nil); err != nil {
		return fmt.Errorf("failed to disable staff %s: %w", id, err)
	}

	return nil
}

func (s *Service) ListVisitorCodes(ctx context.Context) ([]types.VisitorCode, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ListVisitorCodes")
	defer span.End()

	return list[types.VisitorCode](ctx, s, "visitor codes", "/api/visitor-codes/")
}

func (s *Service) CreateVisitorCode(ctx context.Context, code types.NewVisitorCode) (*types.VisitorCode, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.CreateVisitorCode")
	defer span.End()

	if strings.TrimSpace(code.VisitorName) == "" {
		return nil, fmt.Errorf("%w: visitor name is required", ErrInvalidInput)
	}

	created := new(types.VisitorCode)
	if err := s.backend.Post(ctx, "/api/visitor-codes/", code, created); err != nil {
		return nil, fmt.Errorf("failed to create visitor code: %w", err)
	}

	return created, nil
}

func (s *Service) VerifyVisitorCode(ctx context.Context, code string) (*types.VisitorVerification, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.VerifyVisitorCode")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	v := new(types.VisitorVerification)
	if err := s.backend.Post(ctx, "/api/visitor-codes/verify/", map[string]string{"code": code}, v); err != nil {
		return nil, fmt.Errorf("failed to verify visitor code: %w", err)
	}

	return v, nil
}

func (s *Service) ListPlans(ctx context.Context) ([]types.Plan, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ListPlans")
	defer span.End()

	return list[types.Plan](ctx, s, "subscription plans", "/api/subscription/plans/")
}

func (s *Service) SubscriptionStatus(ctx context.Context) (*types.SubscriptionStatus, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.SubscriptionStatus")
	defer span.End()

	st := new(types.SubscriptionStatus)
	if err := s.backend.Get(ctx, "/api/subscription/status/", st); err != nil {
		return nil, fmt.Errorf("failed to get subscription status: %w", err)
	}

	return st, nil
}

func (s *Service) CancelSubscription(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "estate.Service.CancelSubscription")
	defer span.End()

	if err := s.backend.Post(ctx, "/api/subscription/cancel/", nil, nil); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	return nil
}

func (s *Service) ListNotifications(ctx context.Context) ([]types.Notification, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.ListNotifications")
	defer span.End()

	return list[types.Notification](ctx, s, "notifications", "/api/notifications/")
}

func (s *Service) MarkNotificationRead(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "estate.Service.MarkNotificationRead")
	defer span.End()

	return s.post(ctx, "mark notification read", "/api/notifications/%s/read/", id, nil)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "estate.Service.MarkAllNotificationsRead")
	defer span.End()

	if err := s.backend.Post(ctx, "/api/notifications/mark_all_read/", nil, nil); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}

func (s *Service) Profile(ctx context.Context) (*types.Resident, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.Profile")
	defer span.End()

	r := new(types.Resident)
	if err := s.backend.Get(ctx, "/api/resident/profile/", r); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return r, nil
}

func (s *Service) UpdateProfile(ctx context.Context, update types.ProfileUpdate) (*types.Resident, error) {
	ctx, span := s.tracer.Start(ctx, "estate.Service.UpdateProfile")
	defer span.End()

	r := new(types.Resident)
	if err := s.backend.Patch(ctx, "/api/resident/profile/", update, r); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return r, nil
}

func (s *Service) post(ctx context.Context, action, format, id string, in any) error {
	p, err := path(format, id)
	if err != nil {
		return err
	}

	if err := s.backend.Post(ctx, p, in, nil); err != nil {
		return fmt.Errorf("failed to %s %s: %w", action, id, err)
	}

	return nil
}

func (s *Service) delete(ctx context.Context, action, format, id string) error {
	p, err := path(format, id)
	if err != nil {
		return err
	}

	if err := s.backend.Delete(ctx, p, nil); err != nil {
		return fmt.Errorf("failed to %s %s: %w", action, id, err)
	}

	return nil
}

func list[T any](ctx context.Context, s *Service, what, p string) ([]T, error) {
	items, err := backend.GetList[T](ctx, s.backend, p)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}

	s.logger.Debugf("listed %d %s", len(items), what)

	return items, nil
}

// path fills a numeric identifier into a backend path.
func path(format, id string) (string, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil || n == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	return fmt.Sprintf(format, strconv.FormatUint(n, 10)), nil
}
