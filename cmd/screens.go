// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canonical/estate-portal/internal/types"
	"github.com/canonical/estate-portal/pkg/access"
)

// screenRun is the body of a command rendering a screen, it only runs once the gate allows it.
type screenRun func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error

// onScreen gates the command on the screen named name before run talks to the backend.
func onScreen(name string, run screenRun) func(*cobra.Command, []string) error {
	return onScreenWith(name, nil, run)
}

// onScreenWith is onScreen for screens whose path takes parameters from the arguments.
func onScreenWith(name string, params func(args []string) map[string]string, run screenRun) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(app *clientApp) error {
			var p map[string]string
			if params != nil {
				p = params(args)
			}

			if err := app.gate(name, p); err != nil {
				return err
			}

			return run(cmd.Context(), cmd, args, app)
		})
	}
}

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Inspect the access gate",
}

var accessCheckCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Show the gate decision for a screen path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route, _, ok := access.Match(args[0])
		if !ok {
			return fmt.Errorf("no screen at %s", args[0])
		}

		return withClient(cmd.Context(), func(app *clientApp) error {
			i, authenticated := app.session.Store.Current()
			d := route.Decide(args[0], app.session.Store.Hydrated(), i, authenticated)

			result := struct {
				Path     string `json:"path"`
				Screen   string `json:"screen"`
				Outcome  string `json:"outcome"`
				Location string `json:"location,omitempty"`
			}{args[0], route.Name, d.Outcome.String(), d.Location}

			return printResult(cmd.OutOrStdout(), result, func(w io.Writer) {
				location := d.Location
				if location == "" {
					location = "-"
				}

				fmt.Fprintln(w, "PATH\tSCREEN\tOUTCOME\tLOCATION")
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", result.Path, result.Screen, result.Outcome, location)
			})
		})
	},
}

var estatesCmd = &cobra.Command{
	Use:   "estates",
	Short: "Browse registered estates",
}

var listEstatesCmd = &cobra.Command{
	Use:   "list",
	Short: "List estates",
	Args:  cobra.NoArgs,
	RunE: onScreen("estates", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		estates, err := app.estate.ListEstates(ctx)
		if err != nil {
			return failure("list estates", err)
		}

		return printEstates(cmd.OutOrStdout(), estates)
	}),
}

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "List subscription plans",
	Args:  cobra.NoArgs,
	RunE: onScreen("pricing", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		plans, err := app.estate.ListPlans(ctx)
		if err != nil {
			return failure("list plans", err)
		}

		return printPlans(cmd.OutOrStdout(), plans)
	}),
}

func printEstates(out io.Writer, estates []types.Estate) error {
	return printResult(out, estates, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tADDRESS\tPHONE\tEMAIL")
		for _, e := range estates {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Address, e.PhoneNumber, e.Email)
		}
	})
}

func printPlans(out io.Writer, plans []types.Plan) error {
	return printResult(out, plans, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tAMOUNT\tINTERVAL")
		for _, p := range plans {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Amount, p.Interval)
		}
	})
}

func printLeadership(out io.Writer, leaders []types.Leader) error {
	return printResult(out, leaders, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tPOSITION\tEMAIL\tPHONE")
		for _, l := range leaders {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.ID, l.Position, l.Email, l.PhoneNumber)
		}
	})
}

func printAnnouncements(out io.Writer, announcements []types.Announcement) error {
	return printResult(out, announcements, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tTITLE\tBY\tCREATED_AT")
		for _, a := range announcements {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Title, a.CreatedByName, a.CreatedAt)
		}
	})
}

func printAlerts(out io.Writer, alerts []types.Alert) error {
	return printResult(out, alerts, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tTYPE\tSENDER\tREASON\tCREATED_AT")
		for _, a := range alerts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.AlertType, a.SenderName, orDash(a.OtherReason), a.CreatedAt)
		}
	})
}

func printStaff(out io.Writer, staff []types.Staff) error {
	return printResult(out, staff, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tROLE\tPHONE\tSTATUS\tRESIDENT")
		for _, s := range staff {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Role, s.PhoneNumber, orDash(s.Status), orDash(s.ResidentName))
		}
	})
}

func printDues(out io.Writer, dues []types.Due) error {
	return printResult(out, dues, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tTITLE\tAMOUNT\tDUE_DATE\tPAYMENT")
		for _, d := range dues {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Title, d.Amount, d.DueDate, orDash(d.LatestPaymentStatus))
		}
	})
}

func printPayments(out io.Writer, payments []types.Payment) error {
	return printResult(out, payments, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tDUE\tRESIDENT\tAMOUNT\tSTATUS\tDATE")
		for _, p := range payments {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, orDash(p.DueTitle), orDash(p.ResidentName), p.AmountPaid, p.Status, p.PaymentDate)
		}
	})
}

func printEstate(out io.Writer, e *types.Estate) error {
	return printResult(out, e, func(w io.Writer) {
		fmt.Fprintf(w, "ID\t%s\n", e.ID)
		fmt.Fprintf(w, "NAME\t%s\n", e.Name)
		fmt.Fprintf(w, "ADDRESS\t%s\n", e.Address)
		fmt.Fprintf(w, "PHONE\t%s\n", e.PhoneNumber)
		fmt.Fprintf(w, "EMAIL\t%s\n", e.Email)
		if e.Description != "" {
			fmt.Fprintf(w, "DESCRIPTION\t%s\n", e.Description)
		}
	})
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func init() {
	accessCmd.AddCommand(accessCheckCmd)
	estatesCmd.AddCommand(listEstatesCmd)

	rootCmd.AddCommand(accessCmd)
	rootCmd.AddCommand(estatesCmd)
	rootCmd.AddCommand(pricingCmd)
}
