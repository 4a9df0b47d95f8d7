// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package types holds the estate backend records the portal reads and writes.
// Identifiers and amounts are json.Number: the backend sends them as numbers or
// decimal strings depending on the field.
package types

import (
	"encoding/json"
)

type Estate struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Description string      `json:"description,omitempty"`
	PhoneNumber string      `json:"phone_number"`
	Email       string      `json:"email"`
	Logo        string      `json:"logo,omitempty"`
	CreatedAt   string      `json:"created_at,omitempty"`
	UpdatedAt   string      `json:"updated_at,omitempty"`
}

type Leader struct {
	ID             json.Number `json:"id"`
	User           json.Number `json:"user"`
	Email          string      `json:"email,omitempty"`
	Position       string      `json:"position"`
	PhoneNumber    string      `json:"phone_number,omitempty"`
	Bio            string      `json:"bio,omitempty"`
	Order          json.Number `json:"order,omitempty"`
	ProfilePicture string      `json:"profile_picture,omitempty"`
	Estate         json.Number `json:"estate,omitempty"`
}

type Resident struct {
	ID                 json.Number `json:"id"`
	Email              string      `json:"email"`
	FirstName          string      `json:"first_name"`
	LastName           string      `json:"last_name"`
	PhoneNumber        string      `json:"phone_number,omitempty"`
	HomeAddress        string      `json:"home_address,omitempty"`
	HouseType          string      `json:"house_type,omitempty"`
	ResidentType       string      `json:"resident_type,omitempty"`
	Estate             json.Number `json:"estate,omitempty"`
	EstateName         string      `json:"estate_name,omitempty"`
	IsApproved         bool        `json:"is_approved"`
	Role               string      `json:"role"`
	DateJoined         string      `json:"date_joined,omitempty"`
	SubscriptionActive *bool       `json:"subscription_active,omitempty"`
}

// FullName joins first and last name.
func (r Resident) FullName() string {
	switch {
	case r.FirstName == "":
		return r.LastName
	case r.LastName == "":
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

type Due struct {
	ID                  json.Number `json:"id"`
	Title               string      `json:"title"`
	Description         string      `json:"description,omitempty"`
	Amount              json.Number `json:"amount"`
	DueDate             string      `json:"due_date"`
	CreatedAt           string      `json:"created_at,omitempty"`
	CreatedByName       string      `json:"created_by_name,omitempty"`
	LatestPaymentStatus string      `json:"latest_payment_status,omitempty"`
	LatestPaymentDate   string      `json:"latest_payment_date,omitempty"`
	LatestAmountPaid    json.Number `json:"latest_amount_paid,omitempty"`
}

type NewDue struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Amount      json.Number `json:"amount"`
	DueDate     string      `json:"due_date"`
}

type Payment struct {
	ID              json.Number `json:"id"`
	Due             json.Number `json:"due"`
	DueTitle        string      `json:"due_title,omitempty"`
	ResidentName    string      `json:"resident_name,omitempty"`
	AmountPaid      json.Number `json:"amount_paid"`
	PaymentEvidence string      `json:"payment_evidence,omitempty"`
	PaymentDate     string      `json:"payment_date,omitempty"`
	Status          string      `json:"status"`
	AdminNotes      string      `json:"admin_notes,omitempty"`
	ApprovedByName  string      `json:"approved_by_name,omitempty"`
	ApprovedAt      string      `json:"approved_at,omitempty"`
}

type PaymentReview struct {
	AdminNotes string `json:"admin_notes,omitempty"`
}

type Alert struct {
	ID          json.Number `json:"id"`
	Sender      json.Number `json:"sender,omitempty"`
	SenderName  string      `json:"sender_name,omitempty"`
	Estate      json.Number `json:"estate,omitempty"`
	EstateName  string      `json:"estate_name,omitempty"`
	AlertType   string      `json:"alert_type"`
	OtherReason string      `json:"other_reason,omitempty"`
	CreatedAt   string      `json:"created_at,omitempty"`
}

type NewAlert struct {
	AlertType   string `json:"alert_type"`
	OtherReason string `json:"other_reason,omitempty"`
}

type Announcement struct {
	ID            json.Number `json:"id"`
	Title         string      `json:"title"`
	Message       string      `json:"message"`
	CreatedAt     string      `json:"created_at,omitempty"`
	Estate        json.Number `json:"estate,omitempty"`
	CreatedBy     json.Number `json:"created_by,omitempty"`
	CreatedByName string      `json:"created_by_name,omitempty"`
}

type NewAnnouncement struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Staff is an artisan or domestic worker registered by a resident.
type Staff struct {
	ID                 json.Number `json:"id"`
	Name               string      `json:"name"`
	Role               string      `json:"role"`
	PhoneNumber        string      `json:"phone_number"`
	Gender             string      `json:"gender,omitempty"`
	UniqueID           string      `json:"unique_id,omitempty"`
	DateOfRegistration string      `json:"date_of_registration,omitempty"`
	Status             string      `json:"status,omitempty"`
	RemovalReason      string      `json:"removal_reason,omitempty"`
	Resident           json.Number `json:"resident,omitempty"`
	ResidentName       string      `json:"resident_name,omitempty"`
	Estate             json.Number `json:"estate,omitempty"`
	EstateName         string      `json:"estate_name,omitempty"`
}

type StaffRemoval struct {
	RemovalReason string `json:"removal_reason,omitempty"`
}

type VisitorCode struct {
	ID          json.Number     `json:"id"`
	Resident    VisitorResident `json:"resident"`
	VisitorName string          `json:"visitor_name"`
	Code        string          `json:"code"`
	Purpose     string          `json:"purpose,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
	ExpiresAt   string          `json:"expires_at,omitempty"`
	IsUsed      bool            `json:"is_used"`
	UsedAt      string          `json:"used_at,omitempty"`
}

type VisitorResident struct {
	ID          json.Number `json:"id"`
	HomeAddress string      `json:"home_address,omitempty"`
}

type NewVisitorCode struct {
	VisitorName string `json:"visitor_name"`
	Purpose     string `json:"purpose,omitempty"`
}

// VisitorVerification is returned when a gate officer accepts a code.
type VisitorVerification struct {
	Message     string `json:"message"`
	VisitorName string `json:"visitor_name"`
	Resident    string `json:"resident"`
	Estate      string `json:"estate"`
}

type Plan struct {
	ID               json.Number `json:"id"`
	Name             string      `json:"name"`
	Amount           json.Number `json:"amount"`
	Interval         string      `json:"interval"`
	Description      string      `json:"description,omitempty"`
	PaystackPlanCode string      `json:"paystack_plan_code,omitempty"`
}

type SubscriptionStatus struct {
	Status          string `json:"status"`
	Message         string `json:"message,omitempty"`
	NextBillingDate string `json:"next_billing_date,omitempty"`
	CanCancel       bool   `json:"can_cancel"`
	Plan            *Plan  `json:"plan,omitempty"`
}

// Active reports whether the backend considers the estate subscribed.
func (s SubscriptionStatus) Active() bool {
	return s.Status == "active"
}

type Notification struct {
	ID        json.Number `json:"id"`
	Recipient json.Number `json:"recipient,omitempty"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	IsRead    bool        `json:"is_read"`
	CreatedAt string      `json:"created_at,omitempty"`
}

// ProfileUpdate carries the editable profile fields, unset fields are left unchanged.
type ProfileUpdate struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	HomeAddress *string `json:"home_address,omitempty"`
	HouseType   *string `json:"house_type,omitempty"`
}
