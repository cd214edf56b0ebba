package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shivensaigal/queuectl/config"
	"github.com/shivensaigal/queuectl/coordinator"
	"github.com/shivensaigal/queuectl/deadletter"
	"github.com/shivensaigal/queuectl/exec"
	"github.com/shivensaigal/queuectl/queue"
	"github.com/shivensaigal/queuectl/store"
	"github.com/shivensaigal/queuectl/worker"
)

// pendingChannelCapacity bounds the in-memory hand-off between
// Enqueue and the worker pool. It is not part of config.json: the
// spec names it as an internal buffering detail, not an operator knob.
const pendingChannelCapacity = 1024

// App is the fully wired application: every component a CLI command
// needs, constructed once and passed around explicitly.
type App struct {
	Config      *config.Manager
	Store       *store.Store
	Coordinator *coordinator.Coordinator
	Pool        *worker.Pool
	DeadLetter  *deadletter.Manager
	Log         *slog.Logger
}

// Open loads configuration from configPath (creating it with defaults
// if missing), opens the job store at the configured (or overridden)
// data file, and wires the coordinator, worker pool, and dead letter
// manager on top. dataOverride, if non-empty, takes precedence over
// the configured data_file — this is how the CLI's global --data flag
// is threaded through.
func Open(configPath, dataOverride string, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("app: load config: %w", err)
	}

	dataFile := cfg.Current().DataFile
	if dataOverride != "" {
		dataFile = dataOverride
	}

	st, err := store.Open(dataFile)
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	ch := queue.New(pendingChannelCapacity)
	co := coordinator.New(st, ch, cfg.Current().BackoffBase, log)
	if _, err := co.RequeuePending(context.Background()); err != nil {
		return nil, fmt.Errorf("app: requeue pending jobs: %w", err)
	}

	retryInterval := time.Duration(cfg.Current().RetryCheckIntervalSeconds) * time.Second
	jobTimeout := time.Duration(cfg.Current().JobTimeoutSeconds) * time.Second
	pool := worker.NewPool(co, exec.New(jobTimeout), retryInterval, log)

	dlq := deadletter.New(co)

	return &App{
		Config:      cfg,
		Store:       st,
		Coordinator: co,
		Pool:        pool,
		DeadLetter:  dlq,
		Log:         log,
	}, nil
}
