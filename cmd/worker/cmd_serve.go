package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the task watcher and the operator API",
		Long: `Run the worker: apply pending migrations, subscribe to task changes,
process pending generateAudio tasks, and serve the operator API.

SIGINT or SIGTERM stops intake, drains queued tasks, waits for in-flight
notifications, and flushes traces.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, cfg, log, !skipMigrations)
			if err != nil {
				return err
			}
			defer app.close(context.WithoutCancel(ctx))

			return app.run(ctx)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on start")

	return cmd
}
