// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/canonical/estate-portal/pkg/access"
	"github.com/canonical/estate-portal/pkg/authentication"
	"github.com/canonical/estate-portal/pkg/estate"
)

// printResult writes v as JSON with --output json, otherwise table fills a tabwriter.
func printResult(out io.Writer, v any, table func(w io.Writer)) error {
	if output == outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	table(w)
	return w.Flush()
}

// printMessage reports the outcome of an action without data.
func printMessage(out io.Writer, message string) error {
	return printResult(out, map[string]string{"message": message}, func(w io.Writer) {
		fmt.Fprintln(w, message)
	})
}

// redirectError is returned when the access gate does not render the requested screen.
type redirectError struct {
	Path     string
	Decision access.Decision
}

func (e *redirectError) Error() string {
	switch e.Decision.Outcome {
	case access.Wait:
		return fmt.Sprintf("%s: session is still loading, try again", e.Path)
	case access.RedirectLogin:
		return fmt.Sprintf("%s: sign in required, redirected to %s", e.Path, e.Decision.Location)
	case access.RedirectSubscriptionWall:
		return fmt.Sprintf("%s: an active subscription is required, redirected to %s", e.Path, e.Decision.Location)
	}

	return fmt.Sprintf("%s: not available for your role, redirected to %s", e.Path, e.Decision.Location)
}

func exitCode(err error) int {
	var r *redirectError
	if errors.As(err, &r) {
		return 2
	}

	return 1
}

// authFailure turns a gateway error into the message shown to the user.
func authFailure(err error) error {
	return errors.New(authentication.Message(err))
}

// failure prefixes the backend's reason with what the command tried to do.
func failure(action string, err error) error {
	return fmt.Errorf("failed to %s: %s", action, estate.Message(err))
}
