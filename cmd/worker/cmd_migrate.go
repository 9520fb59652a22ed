package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/phrazzld/scry-worker/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [" + strings.Join(postgres.MigrationCommands, "|") + "]",
		Short: "Apply or inspect database migrations",
		Long: `Run a goose command against the embedded SQL migrations.

  up       apply all pending migrations
  down     roll back the most recent migration
  reset    roll back every migration
  status   list applied and pending migrations
  version  print the current schema version`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return err
			}
			if !slices.Contains(postgres.MigrationCommands, args[0]) {
				return fmt.Errorf("unknown migration command %q (expected one of %v)",
					args[0], postgres.MigrationCommands)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadConfig("database")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			return postgres.Migrate(ctx, db, args[0], log)
		},
	}
}
