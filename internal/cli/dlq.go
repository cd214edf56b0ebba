package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newDLQCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Inspect and manage the dead letter queue",
	}
	cmd.AddCommand(
		newDLQListCommand(),
		newDLQRetryCommand(),
		newDLQDeleteCommand(),
		newDLQClearCommand(),
		newDLQStatsCommand(),
	)
	return cmd
}

func newDLQListCommand() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every job in the dead letter queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			dead := a.DeadLetter.List()
			sortByCreatedAt(dead)
			for _, j := range dead {
				printJob(j, verbose)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print full job detail instead of a summary line")
	return cmd
}

func newDLQRetryCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Create fresh jobs from dead letter entries",
		Long:  `Retry creates a brand new job (fresh id, reset attempt count) for each id given, or for every dead letter entry with --all. The original dead records are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			if all {
				retried, err := a.DeadLetter.RetryAll(cmd.Context())
				if err != nil {
					return fmt.Errorf("dlq retry: %w", err)
				}
				fmt.Printf("retried %d job(s)\n", len(retried))
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("dlq retry: pass one or more job ids, or --all")
			}
			ids, err := parseUUIDs(args)
			if err != nil {
				return fmt.Errorf("dlq retry: %w", err)
			}
			retried, err := a.DeadLetter.RetryMany(cmd.Context(), ids)
			if err != nil {
				return fmt.Errorf("dlq retry: %w", err)
			}
			fmt.Printf("retried %d job(s)\n", len(retried))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "retry every job currently in the dead letter queue")
	return cmd
}

func newDLQDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id...>",
		Short: "Permanently delete dead letter entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			ids, err := parseUUIDs(args)
			if err != nil {
				return fmt.Errorf("dlq delete: %w", err)
			}
			deleted, err := a.DeadLetter.DeleteMany(ids)
			if err != nil {
				return fmt.Errorf("dlq delete: %w", err)
			}
			fmt.Printf("deleted %d job(s)\n", deleted)
			return nil
		},
	}
}

func newDLQClearCommand() *cobra.Command {
	var olderThan time.Duration
	var confirm bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Permanently delete dead letter entries",
		Long:  `Clear removes every dead letter entry, or only those older than --older-than. It requires --confirm to guard against an accidental bulk delete.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("dlq clear: pass --confirm to proceed")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			var cleared int
			if olderThan > 0 {
				cleared, err = a.DeadLetter.ClearOlderThan(time.Now().Add(-olderThan))
			} else {
				cleared, err = a.DeadLetter.ClearAll()
			}
			if err != nil {
				return fmt.Errorf("dlq clear: %w", err)
			}
			fmt.Printf("cleared %d job(s)\n", cleared)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "only clear entries that entered the dead letter queue before this long ago")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "required to actually perform the deletion")
	return cmd
}

func newDLQStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the dead letter queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			stats := a.DeadLetter.Statistics()
			fmt.Printf("count:   %d\n", stats.Count)
			fmt.Printf("timeouts: %d\n", stats.TimeoutCount)
			if stats.Oldest != nil {
				fmt.Printf("oldest:  %s\n", stats.Oldest.Format("2006-01-02T15:04:05Z07:00"))
			}
			if stats.Newest != nil {
				fmt.Printf("newest:  %s\n", stats.Newest.Format("2006-01-02T15:04:05Z07:00"))
			}
			return nil
		},
	}
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid job id: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
