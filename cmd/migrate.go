// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/canonical/estate-portal/migrations"
)

// migrateCmd manages the schema of the postgres session store
var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down [version]|status|check]",
	Short: "Run session store migrations",
	Long:  `Run the migrations of the postgres session store. Without arguments all pending migrations are applied.`,
	Args:  migrateArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		command := "up"
		if len(args) > 0 {
			command = args[0]
		}

		version := int64(-1)
		if len(args) > 1 {
			version, _ = strconv.ParseInt(args[1], 10, 64)
		}

		dsn, _ := cmd.Flags().GetString("dsn")
		if dsn == "" {
			return errors.New("no database configured, set --dsn or DSN")
		}

		provider, closer, err := newMigrationProvider(cmd.Context(), dsn)
		if err != nil {
			return err
		}
		defer closer()

		return migrate(cmd.Context(), provider, command, version, cmd.OutOrStdout())
	},
}

func migrateArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.RangeArgs(0, 2)(cmd, args); err != nil {
		return err
	}

	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "up", "down", "status", "check":
	default:
		return fmt.Errorf("invalid migrate command: %q", args[0])
	}

	// only down takes a target version
	if len(args) == 2 {
		if args[0] != "down" {
			return fmt.Errorf("invalid argument combination: %q", args)
		}

		if version, err := strconv.Atoi(args[1]); err != nil || version < 0 {
			return fmt.Errorf("invalid version number: %q", args[1])
		}
	}

	return nil
}

func init() {
	migrateCmd.Flags().String("dsn", os.Getenv("DSN"), "PostgreSQL DSN connection string")

	rootCmd.AddCommand(migrateCmd)
}

func newMigrationProvider(ctx context.Context, dsn string) (*goose.Provider, func(), error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("DSN validation failed: %v", err)
	}

	db := stdlib.OpenDB(*config)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("DB connection failed: %v", err)
	}

	var opts []goose.ProviderOption
	if output == outputJSON {
		opts = append(opts, goose.WithLogger(goose.NopLogger()))
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.EmbedMigrations, opts...)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create goose provider: %w", err)
	}

	return provider, func() { _ = db.Close() }, nil
}

func migrate(ctx context.Context, provider *goose.Provider, command string, version int64, out io.Writer) error {
	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return err
		}
		return printMigrations(out, results)
	case "down":
		var results []*goose.MigrationResult

		if version < 0 {
			result, err := provider.Down(ctx)
			if err != nil {
				return err
			}
			results = append(results, result)
		} else {
			var err error
			if results, err = provider.DownTo(ctx, version); err != nil {
				return err
			}
		}

		return printMigrations(out, results)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return err
		}

		return printResult(out, statuses, func(w io.Writer) {
			fmt.Fprintln(w, "APPLIED_AT\tMIGRATION")
			for _, s := range statuses {
				appliedAt := "Pending"
				if s.State == goose.StateApplied {
					appliedAt = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\n", appliedAt, s.Source.Path)
			}
		})
	case "check":
		return checkMigrations(ctx, provider, out)
	}

	return nil
}

func printMigrations(out io.Writer, results []*goose.MigrationResult) error {
	if results == nil {
		results = []*goose.MigrationResult{}
	}

	return printResult(out, map[string]any{"applied": results}, func(w io.Writer) {
		if len(results) == 0 {
			fmt.Fprintln(w, "No migrations to apply")
			return
		}

		fmt.Fprintln(w, "DIRECTION\tMIGRATION\tDURATION")
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Direction, r.Source.Path, r.Duration)
		}
	})
}

// checkMigrations fails while migrations are pending, so it can gate a deployment.
func checkMigrations(ctx context.Context, provider *goose.Provider, out io.Writer) error {
	pending, err := provider.HasPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to check pending migrations: %w", err)
	}

	current, vErr := provider.GetDBVersion(ctx)

	state := "ok"
	switch {
	case pending:
		state = "pending"
	case vErr != nil:
		state = "unknown"
	}

	if output == outputJSON {
		if err := printResult(out, map[string]any{"status": state, "version": current}, nil); err != nil {
			return err
		}
	}

	if pending {
		return fmt.Errorf("session store migrations are pending: current version %d", current)
	}

	if output != outputJSON {
		fmt.Fprintf(out, "Session store is up to date (version %d)\n", current)
	}

	return nil
}
