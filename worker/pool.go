package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shivensaigal/queuectl/coordinator"
	"github.com/shivensaigal/queuectl/exec"
)

const (
	workerStopGrace    = 30 * time.Second
	schedulerStopGrace = 5 * time.Second

	// dequeueTimeout is the fixed poll wait spec section 4.4 names
	// literally: "Call dequeue(5 s). On timeout, loop."
	dequeueTimeout = 5 * time.Second
)

// ErrNotRunning is returned by AddWorkers when the pool has not been
// started.
var ErrNotRunning = errors.New("worker: pool is not running")

// Status is a snapshot of a Pool's current activity.
type Status struct {
	Running       bool
	Concurrency   int
	CurrentJobIDs []uuid.UUID
}

// Pool owns N worker goroutines plus the periodic retry tick,
// matching spec section 4.5's "Worker Pool" exactly: Start is
// idempotent-by-flag (a second Start while running logs a warning and
// is a no-op, unlike the strict double-start errors the rest of this
// package's actors use), AddWorkers only succeeds while running, and
// Stop applies a fixed 30s grace window to workers and 5s to the
// retry ticker, then returns ErrStopTimeout; it does not force
// termination of workers or commands that are still running.
//
// Generalizes internal/worker_pool.go's WorkerPool[T] by fusing the
// pull step directly into each worker instead of a separate pull loop
// feeding an internal channel — the coordinator's own Dequeue already
// serializes the pop-and-transition step that the teacher's
// puller.go needed a distinct fetch/dispatch stage for.
type Pool struct {
	coordinator   *coordinator.Coordinator
	executor      *exec.Executor
	retryInterval time.Duration
	log           *slog.Logger

	mu        sync.Mutex
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	scheduler *RetryScheduler
	nextSlot  int

	currentMu sync.Mutex
	current   map[int]*uuid.UUID
}

// NewPool builds a Pool. retryInterval is the retry scheduler's tick
// period; each worker's idle poll wait is the fixed 5s spec section
// 4.4 names.
func NewPool(co *coordinator.Coordinator, ex *exec.Executor, retryInterval time.Duration, log *slog.Logger) *Pool {
	if log == nil {
		log = slog.Default()
	}
	return &Pool{
		coordinator:   co,
		executor:      ex,
		retryInterval: retryInterval,
		log:           log,
	}
}

// Start spawns n worker goroutines and starts the retry ticker. If
// the pool is already running, Start logs a warning and returns nil
// without spawning anything further — callers that want more workers
// should call AddWorkers instead.
func (p *Pool) Start(ctx context.Context, n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.log.Warn("pool already running, start is a no-op")
		return nil
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.currentMu.Lock()
	p.current = make(map[int]*uuid.UUID, n)
	p.currentMu.Unlock()
	p.nextSlot = 0
	p.running = true
	p.spawnLocked(n)

	p.scheduler = NewRetryScheduler(p.coordinator, p.retryInterval, p.log)
	if err := p.scheduler.Start(p.ctx); err != nil {
		p.log.Error("failed to start retry scheduler", "err", err)
	}
	return nil
}

// AddWorkers spawns k additional worker goroutines sharing the same
// coordinator and shutdown context. It returns ErrNotRunning if the
// pool has not been started.
func (p *Pool) AddWorkers(k int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return ErrNotRunning
	}
	p.spawnLocked(k)
	return nil
}

func (p *Pool) spawnLocked(n int) {
	for i := 0; i < n; i++ {
		slot := p.nextSlot
		p.nextSlot++
		p.currentMu.Lock()
		p.current[slot] = nil
		p.currentMu.Unlock()
		p.wg.Add(1)
		go p.run(p.ctx, slot)
	}
}

// Stop signals shutdown to every worker and the retry ticker, then
// waits up to 30s for workers and 5s for the ticker to finish. If
// either grace window elapses, Stop returns ErrStopTimeout; in that
// case the corresponding goroutines may still be terminating in the
// background. Stop returns ErrDoubleStopped if the pool is not
// running.
func (p *Pool) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrDoubleStopped
	}
	p.running = false
	cancel := p.cancel
	scheduler := p.scheduler
	p.mu.Unlock()

	cancel()

	schedErrCh := make(chan error, 1)
	go func() {
		if scheduler == nil {
			schedErrCh <- nil
			return
		}
		schedErrCh <- scheduler.Stop(schedulerStopGrace)
	}()

	workersDone := p.workersDone()
	timer := time.NewTimer(workerStopGrace)
	defer timer.Stop()

	var stopErr error
	select {
	case <-workersDone:
	case <-timer.C:
		stopErr = ErrStopTimeout
	}
	if err := <-schedErrCh; err != nil && stopErr == nil {
		stopErr = err
	}
	return stopErr
}

// Status reports whether the pool is running, how many worker slots
// it currently has, and the ids of jobs each slot is executing.
func (p *Pool) Status() Status {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	p.currentMu.Lock()
	defer p.currentMu.Unlock()
	ids := make([]uuid.UUID, 0, len(p.current))
	for _, id := range p.current {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	return Status{
		Running:       running,
		Concurrency:   len(p.current),
		CurrentJobIDs: ids,
	}
}

// workersDone returns a channel that closes once every spawned worker
// goroutine has returned from run. sync.WaitGroup has no native
// select-friendly signal, so this runs the Wait in its own goroutine
// and closes a channel behind it — letting Stop race the wait against
// its grace-window timer instead of blocking on it unconditionally.
func (p *Pool) workersDone() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	return done
}

func (p *Pool) setCurrent(slot int, id *uuid.UUID) {
	p.currentMu.Lock()
	p.current[slot] = id
	p.currentMu.Unlock()
}

func (p *Pool) run(ctx context.Context, slot int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		j, err := p.coordinator.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if !errors.Is(err, coordinator.ErrNoJob) {
				p.log.Error("dequeue failed", "err", err)
			}
			continue
		}
		p.process(slot, j.ID, j.Command)
	}
}

// process runs one dequeued job to completion. It deliberately does
// not take the pool's shutdown context: spec section 5 requires
// in-flight execution to run to its own timeout or natural completion
// rather than being interrupted the instant Stop is called, which is
// also the whole point of workerStopGrace — a grace window that gives
// in-flight work time to finish has no effect if that work is killed
// the moment shutdown begins.
func (p *Pool) process(slot int, id uuid.UUID, command string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker panic recovered", "id", id, "err", r)
			if _, err := p.coordinator.Fail(id, "worker exception: panic recovered"); err != nil {
				p.log.Error("cannot fail job after panic", "id", id, "err", err)
			}
		}
		p.setCurrent(slot, nil)
	}()
	p.setCurrent(slot, &id)

	res := p.executor.Run(context.Background(), command)
	if res.Outcome == exec.Succeeded {
		if _, err := p.coordinator.Complete(id); err != nil {
			p.log.Error("cannot complete job", "id", id, "err", err)
		}
		p.log.Info("job succeeded", "id", id)
		return
	}
	if _, err := p.coordinator.Fail(id, res.Message); err != nil {
		p.log.Error("cannot fail job", "id", id, "err", err)
	}
	p.log.Warn("job failed", "id", id, "reason", res.Message)
}
