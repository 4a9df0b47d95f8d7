// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/canonical/estate-portal/internal/types"
)

var residentCmd = &cobra.Command{
	Use:   "resident",
	Short: "Resident screens",
}

var residentDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Latest announcements and unread notifications",
	Args:  cobra.NoArgs,
	RunE: onScreen("resident-dashboard", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		announcements, err := app.estate.ListAnnouncements(ctx)
		if err != nil {
			return failure("list announcements", err)
		}

		notifications, err := app.estate.ListNotifications(ctx)
		if err != nil {
			return failure("list notifications", err)
		}

		unread := 0
		for _, n := range notifications {
			if !n.IsRead {
				unread++
			}
		}

		dashboard := struct {
			Announcements []types.Announcement `json:"announcements"`
			Unread        int                  `json:"unread_notifications"`
		}{announcements, unread}

		return printResult(cmd.OutOrStdout(), dashboard, func(w io.Writer) {
			fmt.Fprintf(w, "UNREAD NOTIFICATIONS\t%d\n\n", unread)
			fmt.Fprintln(w, "ID\tTITLE\tBY\tCREATED_AT")
			for _, a := range announcements {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Title, a.CreatedByName, a.CreatedAt)
			}
		})
	}),
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Read notifications",
}

var listNotificationsCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications",
	Args:  cobra.NoArgs,
	RunE: onScreen("resident-dashboard", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		notifications, err := app.estate.ListNotifications(ctx)
		if err != nil {
			return failure("list notifications", err)
		}

		return printResult(cmd.OutOrStdout(), notifications, func(w io.Writer) {
			fmt.Fprintln(w, "ID\tTITLE\tREAD\tCREATED_AT")
			for _, n := range notifications {
				fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", n.ID, n.Title, n.IsRead, n.CreatedAt)
			}
		})
	}),
}

var readNotificationCmd = &cobra.Command{
	Use:   "read [id]",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: onScreen("resident-dashboard", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		if err := app.estate.MarkNotificationRead(ctx, args[0]); err != nil {
			return failure("mark notification as read", err)
		}

		return printMessage(cmd.OutOrStdout(), fmt.Sprintf("Notification read: %s", args[0]))
	}),
}

var readAllNotificationsCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	Args:  cobra.NoArgs,
	RunE: onScreen("resident-dashboard", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		if err := app.estate.MarkAllNotificationsRead(ctx); err != nil {
			return failure("mark notifications as read", err)
		}

		return printMessage(cmd.OutOrStdout(), "All notifications read")
	}),
}

var residentAlertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Raise and review security alerts",
}

var listResidentAlertsCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts",
	Args:  cobra.NoArgs,
	RunE: onScreen("resident-dashboard", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		alerts, err := app.estate.ListAlerts(ctx)
		if err != nil {
			return failure("list alerts", err)
		}

		return printAlerts(cmd.OutOrStdout(), alerts)
	}),
}

var sendAlertCmd = &cobra.Command{
	Use:   "send [type]",
	Short: "Raise an alert, use --reason with the other type",
	Args:  cobra.ExactArgs(1),
	RunE: onScreen("resident-dashboard", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		reason, _ := cmd.Flags().GetString("reason")

		alert, err := app.estate.SendAlert(ctx, types.NewAlert{AlertType: args[0], OtherReason: reason})
		if err != nil {
			return failure("send alert", err)
		}

		return printAlerts(cmd.OutOrStdout(), []types.Alert{*alert})
	}),
}

var residentStaffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Artisans and domestic staff",
}

var listResidentStaffCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered staff",
	Args:  cobra.NoArgs,
	RunE: onScreen("resident-dashboard", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		staff, err := app.estate.ListStaff(ctx)
		if err != nil {
			return failure("list staff", err)
		}

		return printStaff(cmd.OutOrStdout(), staff)
	}),
}

var disableStaffCmd = &cobra.Command{
	Use:   "disable [id]",
	Short: "Disable a staff member",
	Args:  cobra.ExactArgs(1),
	RunE: onScreen("resident-dashboard", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		reason, _ := cmd.Flags().GetString("reason")

		if err := app.estate.DisableStaff(ctx, args[0], reason); err != nil {
			return failure("disable staff", err)
		}

		return printMessage(cmd.OutOrStdout(), fmt.Sprintf("Staff disabled: %s", args[0]))
	}),
}

var visitorCodesCmd = &cobra.Command{
	Use:   "visitor-codes",
	Short: "Issue gate codes for visitors",
}

var listVisitorCodesCmd = &cobra.Command{
	Use:   "list",
	Short: "List issued visitor codes",
	Args:  cobra.NoArgs,
	RunE: onScreen("resident-visitor-codes", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		codes, err := app.estate.ListVisitorCodes(ctx)
		if err != nil {
			return failure("list visitor codes", err)
		}

		return printVisitorCodes(cmd.OutOrStdout(), codes)
	}),
}

var createVisitorCodeCmd = &cobra.Command{
	Use:   "create [visitor-name]",
	Short: "Issue a visitor code",
	Args:  cobra.ExactArgs(1),
	RunE: onScreen("resident-visitor-codes", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		purpose, _ := cmd.Flags().GetString("purpose")

		code, err := app.estate.CreateVisitorCode(ctx, types.NewVisitorCode{VisitorName: args[0], Purpose: purpose})
		if err != nil {
			return failure("create visitor code", err)
		}

		return printVisitorCodes(cmd.OutOrStdout(), []types.VisitorCode{*code})
	}),
}

var payDuesCmd = &cobra.Command{
	Use:   "dues",
	Short: "Dues to pay and payments made",
	Args:  cobra.NoArgs,
	RunE: onScreen("resident-pay-dues", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		dues, err := app.estate.ListDues(ctx)
		if err != nil {
			return failure("list dues", err)
		}

		payments, err := app.estate.ListPayments(ctx)
		if err != nil {
			return failure("list payments", err)
		}

		if output == outputJSON {
			return printResult(cmd.OutOrStdout(), struct {
				Dues     []types.Due     `json:"dues"`
				Payments []types.Payment `json:"payments"`
			}{dues, payments}, nil)
		}

		if err := printDues(cmd.OutOrStdout(), dues); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout())

		return printPayments(cmd.OutOrStdout(), payments)
	}),
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update your profile",
	Args:  cobra.NoArgs,
	RunE: onScreen("resident-profile", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		profile, err := app.estate.Profile(ctx)
		if err != nil {
			return failure("load profile", err)
		}

		return printProfile(cmd.OutOrStdout(), profile)
	}),
}

var updateProfileCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields, unset flags are left unchanged",
	Args:  cobra.NoArgs,
	RunE: onScreen("resident-profile", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		update := types.ProfileUpdate{}

		fields := map[string]**string{
			"first-name":   &update.FirstName,
			"last-name":    &update.LastName,
			"phone":        &update.PhoneNumber,
			"home-address": &update.HomeAddress,
			"house-type":   &update.HouseType,
		}

		changed := false
		for flag, field := range fields {
			if !cmd.Flags().Changed(flag) {
				continue
			}

			v, _ := cmd.Flags().GetString(flag)
			*field = &v
			changed = true
		}

		if !changed {
			return errors.New("nothing to update")
		}

		profile, err := app.estate.UpdateProfile(ctx, update)
		if err != nil {
			return failure("update profile", err)
		}

		return printProfile(cmd.OutOrStdout(), profile)
	}),
}

var residentEstateCmd = &cobra.Command{
	Use:   "estate",
	Short: "Your estate and its leadership",
	Args:  cobra.NoArgs,
	RunE: onScreen("resident-estate", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		i, _ := app.session.Store.Current()
		if !i.HasEstate() {
			return errors.New("your account is not assigned to an estate")
		}

		e, err := app.estate.GetEstate(ctx, i.EstateID)
		if err != nil {
			return failure("load estate", err)
		}

		leaders, err := app.estate.ListLeadership(ctx, i.EstateID)
		if err != nil {
			return failure("list leadership", err)
		}

		if output == outputJSON {
			return printResult(cmd.OutOrStdout(), struct {
				Estate     *types.Estate  `json:"estate"`
				Leadership []types.Leader `json:"leadership"`
			}{e, leaders}, nil)
		}

		if err := printEstate(cmd.OutOrStdout(), e); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout())

		return printLeadership(cmd.OutOrStdout(), leaders)
	}),
}

func printVisitorCodes(out io.Writer, codes []types.VisitorCode) error {
	return printResult(out, codes, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tCODE\tVISITOR\tPURPOSE\tEXPIRES_AT\tUSED")
		for _, c := range codes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\n", c.ID, c.Code, c.VisitorName, orDash(c.Purpose), orDash(c.ExpiresAt), c.IsUsed)
		}
	})
}

func printProfile(out io.Writer, r *types.Resident) error {
	return printResult(out, r, func(w io.Writer) {
		fmt.Fprintf(w, "NAME\t%s\n", r.FullName())
		fmt.Fprintf(w, "EMAIL\t%s\n", r.Email)
		fmt.Fprintf(w, "PHONE\t%s\n", orDash(r.PhoneNumber))
		fmt.Fprintf(w, "ADDRESS\t%s\n", orDash(r.HomeAddress))
		fmt.Fprintf(w, "HOUSE\t%s\n", orDash(r.HouseType))
		fmt.Fprintf(w, "ESTATE\t%s\n", orDash(r.EstateName))
	})
}

func init() {
	sendAlertCmd.Flags().String("reason", "", "Reason, required by the backend for the other type")
	disableStaffCmd.Flags().String("reason", "", "Why the staff member is removed")
	createVisitorCodeCmd.Flags().String("purpose", "", "Purpose of the visit")

	updateProfileCmd.Flags().String("first-name", "", "First name")
	updateProfileCmd.Flags().String("last-name", "", "Last name")
	updateProfileCmd.Flags().String("phone", "", "Phone number")
	updateProfileCmd.Flags().String("home-address", "", "Home address")
	updateProfileCmd.Flags().String("house-type", "", "House type")

	notificationsCmd.AddCommand(listNotificationsCmd, readNotificationCmd, readAllNotificationsCmd)
	residentAlertsCmd.AddCommand(listResidentAlertsCmd, sendAlertCmd)
	residentStaffCmd.AddCommand(listResidentStaffCmd, disableStaffCmd)
	visitorCodesCmd.AddCommand(listVisitorCodesCmd, createVisitorCodeCmd)
	profileCmd.AddCommand(updateProfileCmd)

	residentCmd.AddCommand(
		residentDashboardCmd,
		notificationsCmd,
		residentAlertsCmd,
		residentStaffCmd,
		visitorCodesCmd,
		payDuesCmd,
		profileCmd,
		residentEstateCmd,
	)

	rootCmd.AddCommand(residentCmd)
}
