// Package cli assembles the queuectl command surface on top of cobra.
// Every subcommand is a thin collaborator: it opens one app.App value
// for the duration of the invocation and calls straight through to
// coordinator, deadletter or config. No package-level App or store
// reference is kept between commands — only the global flag variables,
// bound when NewRootCommand builds the command tree and read inside
// each RunE.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shivensaigal/queuectl/app"
)

var (
	flagConfigPath string
	flagDataPath   string
	flagVerbose    bool
)

// NewRootCommand builds the queuectl root command and every subcommand.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "queuectl",
		Short:         "Durable local job queue with retrying shell workers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&flagConfigPath, "config", "config.json", "path to the config file")
	root.PersistentFlags().StringVar(&flagDataPath, "data", "", "override the configured data file path")
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug-level logging")

	root.AddCommand(
		newEnqueueCommand(),
		newWorkerCommand(),
		newStatusCommand(),
		newListCommand(),
		newDLQCommand(),
		newConfigCommand(),
	)
	return root
}

// openApp constructs one App for the lifetime of a single command
// invocation, honoring the global --config/--data/--verbose flags.
func openApp() (*app.App, error) {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	a, err := app.Open(flagConfigPath, flagDataPath, log)
	if err != nil {
		return nil, fmt.Errorf("queuectl: %w", err)
	}
	return a, nil
}
