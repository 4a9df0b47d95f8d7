// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var (
	backendURL string
	stateDir   string
	logLevel   string
	output     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "estate-portal",
	Short:         "Estate Portal",
	Long:          `Estate Portal client for estate admins, residents and security staff, and the web portal server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if output != outputTable && output != outputJSON {
			return errors.New("--output must be table or json")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		rootCmd.PrintErrln(err)
		os.Exit(exitCode(err))
	}
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".estate-portal"
	}
	return filepath.Join(dir, "estate-portal")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", os.Getenv("ESTATE_BACKEND_URL"), "Estate backend base URL (e.g. https://estate.example.com)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", defaultStateDir(), "Directory holding the signed in session")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error), logging is off when empty")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", outputTable, "Output format (table or json)")
}
