package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-worker/internal/config"
	"github.com/phrazzld/scry-worker/internal/platform/logger"
	"github.com/spf13/cobra"
)

var version = "dev"

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Audio generation worker",
		Long: `Worker watches the task table for pending generateAudio tasks, turns
their text into speech, stores the audio, and notifies the recipients.

Settings come from WORKER_* environment variables and an optional
config.yaml (see --config).`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Path to a config file (defaults to ./config.yaml when present)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newEnqueueCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

// loadConfig reads configuration validating only the listed sections, or
// everything when none are listed, and installs the process logger.
func (o *rootOptions) loadConfig(sections ...string) (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if len(sections) == 0 {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.LoadSections(o.configPath, append(sections, "server")...)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return cfg, log, nil
}
