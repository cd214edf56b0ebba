package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/shivensaigal/queuectl/job"
	"github.com/shivensaigal/queuectl/store"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show job counts by state and the last durable snapshot time",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			printStatistics(a.Coordinator.Statistics())
			return nil
		},
	}
}

func printStatistics(stats store.Statistics) {
	order := []job.State{job.Pending, job.Processing, job.Completed, job.Failed, job.Dead}
	fmt.Printf("total: %d\n", stats.Total)
	for _, st := range order {
		fmt.Printf("  %-10s %d\n", st.String(), stats.Counts[st])
	}
	if !stats.LastSnapshotAt.IsZero() {
		fmt.Printf("last snapshot: %s\n", stats.LastSnapshotAt.Format("2006-01-02T15:04:05Z07:00"))
	} else {
		fmt.Println("last snapshot: never")
	}
}

// sortByCreatedAt orders jobs oldest-first, matching the order an
// operator expects a job history listing to print in.
func sortByCreatedAt(jobs []*job.Job) {
	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].CreatedAt.Before(jobs[k].CreatedAt)
	})
}
