package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change queuectl's configuration",
	}
	cmd.AddCommand(newConfigShowCommand(), newConfigSetCommand(), newConfigReloadCommand())
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(a.Config.Show(), "", "  ")
			if err != nil {
				return fmt.Errorf("config show: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a single configuration key and persist it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			key, raw := args[0], args[1]
			if err := a.Config.Set(key, coerceValue(raw)); err != nil {
				return fmt.Errorf("config set: %w", err)
			}
			return nil
		},
	}
}

func newConfigReloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Re-read the configuration file from disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			if err := a.Config.Reload(); err != nil {
				return fmt.Errorf("config reload: %w", err)
			}
			return nil
		},
	}
}

// coerceValue interprets a raw CLI argument as an int, a bool, or
// (falling back) a plain string — config.json's values are all one of
// these three shapes.
func coerceValue(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
