// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/canonical/estate-portal/internal/types"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Estate administration screens",
}

var adminDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Summary of residents, dues and payments",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-dashboard", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		residents, err := app.estate.ListResidents(ctx)
		if err != nil {
			return failure("list residents", err)
		}

		pending, err := app.estate.ListPendingResidents(ctx)
		if err != nil {
			return failure("list pending residents", err)
		}

		dues, err := app.estate.ListDues(ctx)
		if err != nil {
			return failure("list dues", err)
		}

		payments, err := app.estate.ListPayments(ctx)
		if err != nil {
			return failure("list payments", err)
		}

		summary := struct {
			Residents        int `json:"residents"`
			PendingResidents int `json:"pending_residents"`
			Dues             int `json:"dues"`
			PendingPayments  int `json:"pending_payments"`
		}{len(residents), len(pending), len(dues), 0}

		for _, p := range payments {
			if p.Status == "pending" {
				summary.PendingPayments++
			}
		}

		return printResult(cmd.OutOrStdout(), summary, func(w io.Writer) {
			fmt.Fprintln(w, "RESIDENTS\tPENDING_RESIDENTS\tDUES\tPENDING_PAYMENTS")
			fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", summary.Residents, summary.PendingResidents, summary.Dues, summary.PendingPayments)
		})
	}),
}

var adminResidentsCmd = &cobra.Command{
	Use:   "residents",
	Short: "Manage estate residents",
}

var listResidentsCmd = &cobra.Command{
	Use:   "list",
	Short: "List residents",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-residents", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		pendingOnly, _ := cmd.Flags().GetBool("pending")

		list := app.estate.ListResidents
		if pendingOnly {
			list = app.estate.ListPendingResidents
		}

		residents, err := list(ctx)
		if err != nil {
			return failure("list residents", err)
		}

		return printResult(cmd.OutOrStdout(), residents, func(w io.Writer) {
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tTYPE\tAPPROVED")
			for _, r := range residents {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", r.ID, r.FullName(), r.Email, orDash(r.ResidentType), r.IsApproved)
			}
		})
	}),
}

var approveResidentCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Approve a pending resident",
	Args:  cobra.ExactArgs(1),
	RunE: onScreen("admin-residents", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		if err := app.estate.ApproveResident(ctx, args[0]); err != nil {
			return failure("approve resident", err)
		}

		return printMessage(cmd.OutOrStdout(), fmt.Sprintf("Resident approved: %s", args[0]))
	}),
}

var deleteResidentCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Remove a resident",
	Args:  cobra.ExactArgs(1),
	RunE: onScreen("admin-residents", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		if err := app.estate.DeleteResident(ctx, args[0]); err != nil {
			return failure("delete resident", err)
		}

		return printMessage(cmd.OutOrStdout(), fmt.Sprintf("Resident deleted: %s", args[0]))
	}),
}

var adminDuesCmd = &cobra.Command{
	Use:   "dues",
	Short: "Manage estate dues",
}

var listDuesCmd = &cobra.Command{
	Use:   "list",
	Short: "List dues",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-dues", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		dues, err := app.estate.ListDues(ctx)
		if err != nil {
			return failure("list dues", err)
		}

		return printDues(cmd.OutOrStdout(), dues)
	}),
}

var createDueCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a due",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-dues", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		flags := cmd.Flags()

		due := types.NewDue{}
		due.Title, _ = flags.GetString("title")
		due.Description, _ = flags.GetString("description")
		due.DueDate, _ = flags.GetString("due-date")

		amount, _ := flags.GetString("amount")
		due.Amount = json.Number(amount)

		created, err := app.estate.CreateDue(ctx, due)
		if err != nil {
			return failure("create due", err)
		}

		return printDues(cmd.OutOrStdout(), []types.Due{*created})
	}),
}

var deleteDueCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a due",
	Args:  cobra.ExactArgs(1),
	RunE: onScreen("admin-dues", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		if err := app.estate.DeleteDue(ctx, args[0]); err != nil {
			return failure("delete due", err)
		}

		return printMessage(cmd.OutOrStdout(), fmt.Sprintf("Due deleted: %s", args[0]))
	}),
}

var adminPaymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Review dues payments",
}

var listPaymentsCmd = &cobra.Command{
	Use:   "list",
	Short: "List payments",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-payments", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		payments, err := app.estate.ListPayments(ctx)
		if err != nil {
			return failure("list payments", err)
		}

		return printPayments(cmd.OutOrStdout(), payments)
	}),
}

var approvePaymentCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Approve a payment",
	Args:  cobra.ExactArgs(1),
	RunE: onScreen("admin-payments", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		notes, _ := cmd.Flags().GetString("notes")

		if err := app.estate.ApprovePayment(ctx, args[0], notes); err != nil {
			return failure("approve payment", err)
		}

		return printMessage(cmd.OutOrStdout(), fmt.Sprintf("Payment approved: %s", args[0]))
	}),
}

var rejectPaymentCmd = &cobra.Command{
	Use:   "reject [id]",
	Short: "Reject a payment",
	Args:  cobra.ExactArgs(1),
	RunE: onScreen("admin-payments", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		notes, _ := cmd.Flags().GetString("notes")

		if err := app.estate.RejectPayment(ctx, args[0], notes); err != nil {
			return failure("reject payment", err)
		}

		return printMessage(cmd.OutOrStdout(), fmt.Sprintf("Payment rejected: %s", args[0]))
	}),
}

var estateProfileCmd = &cobra.Command{
	Use:   "estate-profile",
	Short: "Show the administered estate",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-estate-profile", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		i, _ := app.session.Store.Current()
		if !i.HasEstate() {
			return errors.New("your account is not assigned to an estate")
		}

		e, err := app.estate.GetEstate(ctx, i.EstateID)
		if err != nil {
			return failure("load estate", err)
		}

		return printEstate(cmd.OutOrStdout(), e)
	}),
}

var leadershipCmd = &cobra.Command{
	Use:   "leadership [estate-id]",
	Short: "List the leadership of an estate",
	Args:  cobra.ExactArgs(1),
	RunE: onScreenWith(
		"admin-estate-leadership",
		func(args []string) map[string]string { return map[string]string{"estateId": args[0]} },
		func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
			leaders, err := app.estate.ListLeadership(ctx, args[0])
			if err != nil {
				return failure("list leadership", err)
			}

			return printLeadership(cmd.OutOrStdout(), leaders)
		},
	),
}

var adminSubscriptionCmd = &cobra.Command{
	Use:   "subscription",
	Short: "Manage the estate subscription",
}

var subscriptionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the subscription status",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-subscription", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		status, err := app.estate.SubscriptionStatus(ctx)
		if err != nil {
			return failure("load subscription", err)
		}

		return printResult(cmd.OutOrStdout(), status, func(w io.Writer) {
			plan := "-"
			if status.Plan != nil {
				plan = status.Plan.Name
			}

			fmt.Fprintln(w, "STATUS\tPLAN\tNEXT_BILLING\tCAN_CANCEL")
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", status.Status, plan, orDash(status.NextBillingDate), status.CanCancel)
		})
	}),
}

var subscriptionPlansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List subscription plans",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-subscription", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		plans, err := app.estate.ListPlans(ctx)
		if err != nil {
			return failure("list plans", err)
		}

		return printPlans(cmd.OutOrStdout(), plans)
	}),
}

var subscriptionCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the subscription at the end of the billing period",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-subscription", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		if err := app.estate.CancelSubscription(ctx); err != nil {
			return failure("cancel subscription", err)
		}

		return printMessage(cmd.OutOrStdout(), "Subscription cancelled")
	}),
}

var adminAnnouncementsCmd = &cobra.Command{
	Use:   "announcements",
	Short: "Manage estate announcements",
}

var listAnnouncementsCmd = &cobra.Command{
	Use:   "list",
	Short: "List announcements",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-announcements", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		announcements, err := app.estate.ListAnnouncements(ctx)
		if err != nil {
			return failure("list announcements", err)
		}

		return printAnnouncements(cmd.OutOrStdout(), announcements)
	}),
}

var createAnnouncementCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish an announcement to residents",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-announcements", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		a := types.NewAnnouncement{}
		a.Title, _ = cmd.Flags().GetString("title")
		a.Message, _ = cmd.Flags().GetString("message")

		created, err := app.estate.CreateAnnouncement(ctx, a)
		if err != nil {
			return failure("create announcement", err)
		}

		return printAnnouncements(cmd.OutOrStdout(), []types.Announcement{*created})
	}),
}

var deleteAnnouncementCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an announcement",
	Args:  cobra.ExactArgs(1),
	RunE: onScreen("admin-announcements", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		if err := app.estate.DeleteAnnouncement(ctx, args[0]); err != nil {
			return failure("delete announcement", err)
		}

		return printMessage(cmd.OutOrStdout(), fmt.Sprintf("Announcement deleted: %s", args[0]))
	}),
}

// alerts and staff have no screen of their own, they are reached from the dashboard
var adminAlertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List security alerts raised in the estate",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-dashboard", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		alerts, err := app.estate.ListAlerts(ctx)
		if err != nil {
			return failure("list alerts", err)
		}

		return printAlerts(cmd.OutOrStdout(), alerts)
	}),
}

var adminStaffCmd = &cobra.Command{
	Use:   "staff",
	Short: "List artisans and domestic staff registered in the estate",
	Args:  cobra.NoArgs,
	RunE: onScreen("admin-dashboard", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		staff, err := app.estate.ListStaff(ctx)
		if err != nil {
			return failure("list staff", err)
		}

		return printStaff(cmd.OutOrStdout(), staff)
	}),
}

func init() {
	listResidentsCmd.Flags().Bool("pending", false, "Only residents awaiting approval")

	createDueCmd.Flags().String("title", "", "Due title")
	createDueCmd.Flags().String("description", "", "Due description")
	createDueCmd.Flags().String("amount", "", "Amount, e.g. 5000.00")
	createDueCmd.Flags().String("due-date", "", "Due date, YYYY-MM-DD")
	_ = createDueCmd.MarkFlagRequired("title")
	_ = createDueCmd.MarkFlagRequired("amount")
	_ = createDueCmd.MarkFlagRequired("due-date")

	approvePaymentCmd.Flags().String("notes", "", "Notes for the resident")
	rejectPaymentCmd.Flags().String("notes", "", "Notes for the resident")

	createAnnouncementCmd.Flags().String("title", "", "Announcement title")
	createAnnouncementCmd.Flags().String("message", "", "Announcement text")
	_ = createAnnouncementCmd.MarkFlagRequired("title")
	_ = createAnnouncementCmd.MarkFlagRequired("message")

	adminResidentsCmd.AddCommand(listResidentsCmd, approveResidentCmd, deleteResidentCmd)
	adminDuesCmd.AddCommand(listDuesCmd, createDueCmd, deleteDueCmd)
	adminPaymentsCmd.AddCommand(listPaymentsCmd, approvePaymentCmd, rejectPaymentCmd)
	adminSubscriptionCmd.AddCommand(subscriptionStatusCmd, subscriptionPlansCmd, subscriptionCancelCmd)
	adminAnnouncementsCmd.AddCommand(listAnnouncementsCmd, createAnnouncementCmd, deleteAnnouncementCmd)

	adminCmd.AddCommand(
		adminDashboardCmd,
		adminResidentsCmd,
		adminDuesCmd,
		adminPaymentsCmd,
		estateProfileCmd,
		leadershipCmd,
		adminSubscriptionCmd,
		adminAnnouncementsCmd,
		adminAlertsCmd,
		adminStaffCmd,
	)

	rootCmd.AddCommand(adminCmd)
}
