// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canonical/estate-portal/internal/identity"
	"github.com/canonical/estate-portal/pkg/access"
	"github.com/canonical/estate-portal/pkg/authentication"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the estate portal",
	Long:  `Sign in with email and password. The password is read from stdin when --password is not given.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if password == "" {
			var err error
			if password, err = readSecret(cmd.InOrStdin()); err != nil {
				return err
			}
		}

		return withClient(cmd.Context(), func(app *clientApp) error {
			i, err := app.gateway.Login(cmd.Context(), email, password)
			if err != nil {
				return authFailure(err)
			}

			return printIdentity(cmd.OutOrStdout(), i)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the local session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(app *clientApp) error {
			// the local session is gone even when the backend call fails
			if err := app.gateway.Logout(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", authentication.Message(err))
			}

			return printMessage(cmd.OutOrStdout(), "Signed out")
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a resident or security account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()

		req := authentication.RegisterRequest{}
		req.Email, _ = flags.GetString("email")
		req.Password, _ = flags.GetString("password")
		req.FirstName, _ = flags.GetString("first-name")
		req.LastName, _ = flags.GetString("last-name")
		req.PhoneNumber, _ = flags.GetString("phone")
		req.HomeAddress, _ = flags.GetString("home-address")
		req.HouseType, _ = flags.GetString("house-type")
		req.ResidentType, _ = flags.GetString("resident-type")
		req.Estate, _ = flags.GetInt64("estate")

		if req.Password == "" {
			var err error
			if req.Password, err = readSecret(cmd.InOrStdin()); err != nil {
				return err
			}
		}

		return withClient(cmd.Context(), func(app *clientApp) error {
			if err := app.gateway.Register(cmd.Context(), req); err != nil {
				return authFailure(err)
			}

			return printMessage(cmd.OutOrStdout(), "Registration successful, check your email for the verification code")
		})
	},
}

var verifyEmailCmd = &cobra.Command{
	Use:   "verify-email [code]",
	Short: "Verify an email address with the emailed code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")

		return withClient(cmd.Context(), func(app *clientApp) error {
			err := app.gateway.VerifyEmail(cmd.Context(), authentication.VerifyEmailRequest{Email: email, Code: args[0]})
			if err != nil {
				return authFailure(err)
			}

			return printMessage(cmd.OutOrStdout(), "Email verified, you can now sign in")
		})
	},
}

var resendVerificationCmd = &cobra.Command{
	Use:   "resend-verification",
	Short: "Send a new verification code",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")

		return withClient(cmd.Context(), func(app *clientApp) error {
			if err := app.gateway.ResendVerification(cmd.Context(), email); err != nil {
				return authFailure(err)
			}

			return printMessage(cmd.OutOrStdout(), "Verification code sent")
		})
	},
}

var passwordResetCmd = &cobra.Command{
	Use:   "password-reset",
	Short: "Reset a forgotten password",
}

var passwordResetRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Email a password reset code",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")

		return withClient(cmd.Context(), func(app *clientApp) error {
			if err := app.gateway.RequestPasswordReset(cmd.Context(), email); err != nil {
				return authFailure(err)
			}

			return printMessage(cmd.OutOrStdout(), "Reset code sent")
		})
	},
}

var passwordResetConfirmCmd = &cobra.Command{
	Use:   "confirm [code]",
	Short: "Set a new password with the emailed code",
	Long:  `Set a new password. It is read from stdin when --password is not given.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if password == "" {
			var err error
			if password, err = readSecret(cmd.InOrStdin()); err != nil {
				return err
			}
		}

		return withClient(cmd.Context(), func(app *clientApp) error {
			req := authentication.PasswordResetConfirmRequest{Email: email, Code: args[0], NewPassword: password}
			if err := app.gateway.ConfirmPasswordReset(cmd.Context(), req); err != nil {
				return authFailure(err)
			}

			return printMessage(cmd.OutOrStdout(), "Password updated, you can now sign in")
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")

		return withClient(cmd.Context(), func(app *clientApp) error {
			if refresh {
				i, err := app.gateway.Refresh(cmd.Context())
				if err != nil {
					return authFailure(err)
				}
				return printIdentity(cmd.OutOrStdout(), i)
			}

			i, ok := app.session.Store.Current()
			if !ok {
				return &redirectError{Path: "whoami", Decision: access.Decision{Outcome: access.RedirectLogin, Location: access.LoginPath}}
			}

			return printIdentity(cmd.OutOrStdout(), i)
		})
	},
}

func printIdentity(out io.Writer, i identity.Identity) error {
	return printResult(out, i, func(w io.Writer) {
		estate := i.EstateID
		if estate == "" {
			estate = "-"
		}

		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tESTATE\tSUBSCRIPTION")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", i.ID, i.DisplayName, i.Email, i.Role, estate, subscriptionLabel(i.SubscriptionActive))
	})
}

func subscriptionLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

// readSecret reads one line, so passwords can be piped in instead of showing up in the process list.
func readSecret(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password")
	_ = loginCmd.MarkFlagRequired("email")

	registerCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("password", "", "Account password, at least 8 characters")
	registerCmd.Flags().String("first-name", "", "First name")
	registerCmd.Flags().String("last-name", "", "Last name")
	registerCmd.Flags().String("phone", "", "Phone number")
	registerCmd.Flags().String("home-address", "", "Home address")
	registerCmd.Flags().String("house-type", "", "House type")
	registerCmd.Flags().String("resident-type", "tenant", "One of tenant, landlord/landlady, security")
	registerCmd.Flags().Int64("estate", 0, "Estate ID, see estates list")

	verifyEmailCmd.Flags().String("email", "", "Account email")
	resendVerificationCmd.Flags().String("email", "", "Account email")
	passwordResetRequestCmd.Flags().String("email", "", "Account email")
	passwordResetConfirmCmd.Flags().String("email", "", "Account email")
	passwordResetConfirmCmd.Flags().String("password", "", "New password, at least 8 characters")

	whoamiCmd.Flags().Bool("refresh", false, "Re-read the profile from the backend")

	passwordResetCmd.AddCommand(passwordResetRequestCmd)
	passwordResetCmd.AddCommand(passwordResetConfirmCmd)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(verifyEmailCmd)
	rootCmd.AddCommand(resendVerificationCmd)
	rootCmd.AddCommand(passwordResetCmd)
	rootCmd.AddCommand(whoamiCmd)
}
