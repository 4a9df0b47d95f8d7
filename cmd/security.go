// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var securityCmd = &cobra.Command{
	Use:   "security",
	Short: "Gate officer screens",
}

var verifyVisitorCmd = &cobra.Command{
	Use:   "verify [code]",
	Short: "Verify a visitor code at the gate",
	Args:  cobra.ExactArgs(1),
	RunE: onScreen("security-verify-visitor", func(ctx context.Context, cmd *cobra.Command, args []string, app *clientApp) error {
		v, err := app.estate.VerifyVisitorCode(ctx, args[0])
		if err != nil {
			return failure("verify visitor code", err)
		}

		return printResult(cmd.OutOrStdout(), v, func(w io.Writer) {
			fmt.Fprintln(w, "VISITOR\tRESIDENT\tESTATE\tMESSAGE")
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.VisitorName, orDash(v.Resident), orDash(v.Estate), v.Message)
		})
	}),
}

func init() {
	securityCmd.AddCommand(verifyVisitorCmd)
	rootCmd.AddCommand(securityCmd)
}
