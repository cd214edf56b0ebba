package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shivensaigal/queuectl/job"
)

func newListCommand() *cobra.Command {
	var stateFlag string
	var limit int
	var offset int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, optionally filtered by state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}

			var jobs []*job.Job
			if stateFlag != "" {
				st, err := job.ParseState(stateFlag)
				if err != nil {
					return fmt.Errorf("list: %w", err)
				}
				jobs = a.Coordinator.ListByState(st)
			} else {
				jobs = a.Coordinator.List()
			}
			sortByCreatedAt(jobs)

			if offset > len(jobs) {
				offset = len(jobs)
			}
			jobs = jobs[offset:]
			if limit > 0 && limit < len(jobs) {
				jobs = jobs[:limit]
			}

			for _, j := range jobs {
				printJob(j, verbose)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stateFlag, "state", "", "only list jobs in this state (pending, processing, completed, failed, dead)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of jobs to print (0 = no limit)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of jobs to skip before printing")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print full job detail instead of a summary line")
	return cmd
}

func printJob(j *job.Job, verbose bool) {
	if !verbose {
		fmt.Printf("%s  %-10s  attempts=%d  %s\n", j.ID, j.State, j.Attempts, j.Command)
		return
	}
	fmt.Printf("id:           %s\n", j.ID)
	fmt.Printf("command:      %s\n", j.Command)
	fmt.Printf("state:        %s\n", j.State)
	fmt.Printf("attempts:     %d / %d\n", j.Attempts, j.MaxRetries)
	fmt.Printf("created_at:   %s\n", j.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Printf("updated_at:   %s\n", j.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
	if j.ErrorMessage != nil {
		fmt.Printf("error:        %s\n", *j.ErrorMessage)
	}
	if j.NextRetryAt != nil {
		fmt.Printf("next_retry_at: %s\n", j.NextRetryAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	if len(j.Metadata) > 0 {
		fmt.Printf("metadata:     %v\n", j.Metadata)
	}
	fmt.Println()
}
