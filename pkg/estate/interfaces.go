// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package estate

import (
	"context"

	"github.com/canonical/estate-portal/internal/types"
)

type ServiceInterface interface {
	ListEstates(ctx context.Context) ([]types.Estate, error)
	GetEstate(ctx context.Context, id string) (*types.Estate, error)
	ListLeadership(ctx context.Context, estateID string) ([]types.Leader, error)

	ListResidents(ctx context.Context) ([]types.Resident, error)
	ListPendingResidents(ctx context.Context) ([]types.Resident, error)
	ApproveResident(ctx context.Context, id string) error
	DeleteResident(ctx context.Context, id string) error

	ListDues(ctx context.Context) ([]types.Due, error)
	CreateDue(ctx context.Context, due types.NewDue) (*types.Due, error)
	DeleteDue(ctx context.Context, id string) error

	ListPayments(ctx context.Context) ([]types.Payment, error)
	ApprovePayment(ctx context.Context, id, notes string) error
	RejectPayment(ctx context.Context, id, notes string) error

	ListAlerts(ctx context.Context) ([]types.Alert, error)
	SendAlert(ctx context.Context, alert types.NewAlert) (*types.Alert, error)

	ListAnnouncements(ctx context.Context) ([]types.Announcement, error)
	CreateAnnouncement(ctx context.Context, a types.NewAnnouncement) (*types.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id string) error

	ListStaff(ctx context.Context) ([]types.Staff, error)
	DisableStaff(ctx context.Context, id, reason string) error

	ListVisitorCodes(ctx context.Context) ([]types.VisitorCode, error)
	CreateVisitorCode(ctx context.Context, code types.NewVisitorCode) (*types.VisitorCode, error)
	VerifyVisitorCode(ctx context.Context, code string) (*types.VisitorVerification, error)

	ListPlans(ctx context.Context) ([]types.Plan, error)
	SubscriptionStatus(ctx context.Context) (*types.SubscriptionStatus, error)
	CancelSubscription(ctx context.Context) error

	ListNotifications(ctx context.Context) ([]types.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error

	Profile(ctx context.Context) (*types.Resident, error)
	UpdateProfile(ctx context.Context, update types.ProfileUpdate) (*types.Resident, error)
}
