package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWorkerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run or inspect the worker pool",
	}
	cmd.AddCommand(newWorkerStartCommand(), newWorkerStopCommand(), newWorkerStatusCommand())
	return cmd
}

func newWorkerStartCommand() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the worker pool and block until interrupted",
		Long: `Start spawns the configured number of workers plus the retry
scheduler, then blocks in the foreground until it receives SIGINT or
SIGTERM. On signal it stops the pool gracefully (30s worker grace, 5s
retry scheduler grace) and exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}

			if count <= 0 {
				count = a.Config.Current().WorkerCount
			}
			if err := a.Pool.Start(cmd.Context(), count); err != nil {
				return fmt.Errorf("worker start: %w", err)
			}
			a.Log.Info("worker pool started", "count", count)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			a.Log.Info("shutdown signal received, stopping worker pool")
			if err := a.Pool.Stop(); err != nil {
				return fmt.Errorf("worker start: stop: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "number of worker goroutines to run (0 = worker_count from the config file)")
	return cmd
}

func newWorkerStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Print instructions for stopping a running worker pool",
		Long: `queuectl has no daemon/IPC layer: "worker start" runs in the
foreground of its own process. To stop it, send SIGINT or SIGTERM to
that process (e.g. Ctrl-C, or kill <pid>) and it will shut down
gracefully on its own.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("queuectl has no background daemon: send SIGINT or SIGTERM to the running \"worker start\" process to stop it gracefully.")
			return nil
		},
	}
}

func newWorkerStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report job counts by state from the durable store",
		Long: `Because each CLI invocation is a fresh process, there is no live
worker pool to query here — this reports the same store-derived
counts as "queuectl status", with the Processing count standing in
for in-flight work. Run "worker start" in the foreground to see live
per-slot activity in its own log output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			stats := a.Coordinator.Statistics()
			printStatistics(stats)
			return nil
		},
	}
}
