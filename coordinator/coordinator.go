package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shivensaigal/queuectl/job"
	"github.com/shivensaigal/queuectl/queue"
	"github.com/shivensaigal/queuectl/store"
)

var (
	// ErrNoJob is returned by Dequeue when no pending job became
	// available before the timeout elapsed.
	ErrNoJob = errors.New("coordinator: no job available")

	// ErrNotProcessing is returned by Complete and Fail when the job
	// named is not currently in the Processing state.
	ErrNotProcessing = errors.New("coordinator: job is not processing")

	// ErrNotDead is returned by RetryDead when the job named is not in
	// the Dead state.
	ErrNotDead = errors.New("coordinator: job is not dead")

	// ErrEmptyCommand is returned by Enqueue for a blank command string.
	ErrEmptyCommand = errors.New("coordinator: command must not be empty")
)

// Coordinator serializes every enqueue/dequeue/complete/fail/retry
// transition against the store, and hands pending work to the queue.
type Coordinator struct {
	store       *store.Store
	ch          *queue.Channel
	backoffBase atomic.Uint32
	log         *slog.Logger
}

// New builds a Coordinator over st and ch. backoffBase is the initial
// exponent base for the retry delay formula; it can be changed later
// with SetBackoffBase to pick up a config reload.
func New(st *store.Store, ch *queue.Channel, backoffBase uint32, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	c := &Coordinator{store: st, ch: ch, log: log}
	c.backoffBase.Store(backoffBase)
	return c
}

// SetBackoffBase updates the exponent base used for future retry
// delay computations. Safe for concurrent use.
func (c *Coordinator) SetBackoffBase(base uint32) {
	c.backoffBase.Store(base)
}

// Enqueue creates a new Pending job for command and hands it to the
// queue. maxRetries of 0 means the job goes straight to Dead on its
// first failure.
func (c *Coordinator) Enqueue(ctx context.Context, command string, maxRetries uint32) (*job.Job, error) {
	if command == "" {
		return nil, ErrEmptyCommand
	}
	now := time.Now()
	j := &job.Job{
		ID:         uuid.New(),
		Command:    command,
		MaxRetries: maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
		State:      job.Pending,
	}
	if err := c.store.Put(j); err != nil {
		return nil, fmt.Errorf("coordinator: enqueue: %w", err)
	}
	if err := c.ch.Push(ctx, job.NewHandle(j)); err != nil {
		return nil, fmt.Errorf("coordinator: enqueue: %w", err)
	}
	c.log.Info("job enqueued", "id", j.ID, "command", j.Command, "max_retries", j.MaxRetries)
	return j, nil
}

// enqueueExisting re-offers an already-durable Pending job to the
// queue without creating a new record. Used by ProcessRetries, which
// has already transitioned the job back to Pending in the store, and
// by RequeuePending.
func (c *Coordinator) enqueueExisting(ctx context.Context, j *job.Job) error {
	return c.ch.Push(ctx, job.NewHandle(j))
}

// Dequeue waits up to timeout for a pending handle and transitions
// the corresponding job to Processing. It returns ErrNoJob if nothing
// became available, or if the handle it received no longer refers to
// a Pending job (the job may have been deleted, or this is a stale
// handle from a crash between Dequeue and its durable write — spec
// section 8 accepts this race as a documented limitation rather than
// a correctness bug).
func (c *Coordinator) Dequeue(ctx context.Context, timeout time.Duration) (*job.Job, error) {
	h, ok := c.ch.Pop(ctx, timeout)
	if !ok {
		return nil, ErrNoJob
	}
	j, err := c.store.Get(h.ID)
	if err != nil {
		c.log.Warn("dequeued handle has no matching job", "id", h.ID)
		return nil, ErrNoJob
	}
	if j.State != job.Pending {
		c.log.Warn("dequeued handle is not pending", "id", h.ID, "state", j.State)
		return nil, ErrNoJob
	}
	j.State = job.Processing
	j.UpdatedAt = time.Now()
	if err := c.store.Put(j); err != nil {
		return nil, fmt.Errorf("coordinator: dequeue: %w", err)
	}
	return j, nil
}

// Complete transitions a Processing job to Completed, clearing any
// error message and retry timer.
func (c *Coordinator) Complete(id uuid.UUID) (*job.Job, error) {
	j, err := c.store.Get(id)
	if err != nil {
		return nil, err
	}
	if j.State != job.Processing {
		return nil, ErrNotProcessing
	}
	j.State = job.Completed
	j.ErrorMessage = nil
	j.NextRetryAt = nil
	j.UpdatedAt = time.Now()
	if err := c.store.Put(j); err != nil {
		return nil, fmt.Errorf("coordinator: complete: %w", err)
	}
	c.log.Info("job completed", "id", j.ID)
	return j, nil
}

// Fail transitions a Processing job to Failed or Dead, depending on
// whether the post-increment attempt count still fits within
// MaxRetries.
//
// attempts is incremented unconditionally on every failure. The job
// lands in Failed (with a computed NextRetryAt) when the new attempt
// count is still <= MaxRetries; it lands in Dead, terminally, the
// moment the new attempt count exceeds MaxRetries. This matches the
// worked retry scenario and the attempts invariants in spec section
// 8 (attempts <= max_retries when Failed, attempts <= max_retries+1
// when Dead) rather than the stricter "attempts+1 < max_retries"
// reading of the state table in section 4.3, which would send a job
// to Dead one failure earlier than the scenario walks through.
func (c *Coordinator) Fail(id uuid.UUID, reason string) (*job.Job, error) {
	j, err := c.store.Get(id)
	if err != nil {
		return nil, err
	}
	if j.State != job.Processing {
		return nil, ErrNotProcessing
	}
	now := time.Now()
	newAttempts := j.Attempts + 1
	j.Attempts = newAttempts
	j.ErrorMessage = &reason
	j.UpdatedAt = now

	if newAttempts <= j.MaxRetries {
		j.State = job.Failed
		delay := backoffDelay(c.backoffBase.Load(), newAttempts)
		next := now.Add(delay)
		j.NextRetryAt = &next
		c.log.Info("job failed, scheduled for retry", "id", j.ID, "attempts", newAttempts, "next_retry_at", next)
	} else {
		j.State = job.Dead
		j.NextRetryAt = nil
		c.log.Warn("job exhausted retries, moved to dead letter", "id", j.ID, "attempts", newAttempts)
	}

	if err := c.store.Put(j); err != nil {
		return nil, fmt.Errorf("coordinator: fail: %w", err)
	}
	return j, nil
}

// RequeuePending re-offers every durably Pending job to the queue. Call
// this once right after wiring a Coordinator to a freshly opened store:
// store.Open already resets stale Processing records to Pending on its
// own (a prior run may have crashed mid-execution), and the store may
// simply contain ordinary Pending records enqueued before the process
// last stopped — either way, a brand new queue.Channel starts empty, so
// without this call those jobs would sit durably Pending forever, never
// reaching a worker's Dequeue. RequeuePending closes that gap, making
// the at-least-once crash-recovery policy actually re-deliver the job
// instead of only relabeling it.
func (c *Coordinator) RequeuePending(ctx context.Context) (int, error) {
	pending := c.store.ListByState(job.Pending)
	count := 0
	for _, j := range pending {
		if err := c.enqueueExisting(ctx, j); err != nil {
			return count, fmt.Errorf("coordinator: requeue pending: %w", err)
		}
		count++
	}
	if count > 0 {
		c.log.Info("requeued pending jobs left over from a previous run", "count", count)
	}
	return count, nil
}

// ProcessRetries moves every Failed job whose NextRetryAt has elapsed
// back to Pending and re-offers it to the queue. It does not touch
// Attempts: the retry scheduler only ever clears a timer, it never
// counts as an attempt by itself.
func (c *Coordinator) ProcessRetries(ctx context.Context, now time.Time) (int, error) {
	ready := c.store.ListReadyForRetry(now)
	moved := 0
	for _, j := range ready {
		j.State = job.Pending
		j.NextRetryAt = nil
		j.ErrorMessage = nil
		j.UpdatedAt = now
		if err := c.store.Put(j); err != nil {
			return moved, fmt.Errorf("coordinator: process retries: %w", err)
		}
		if err := c.enqueueExisting(ctx, j); err != nil {
			return moved, fmt.Errorf("coordinator: process retries: %w", err)
		}
		moved++
	}
	if moved > 0 {
		c.log.Info("retry scheduler moved jobs back to pending", "count", moved)
	}
	return moved, nil
}

// RetryDead takes a Dead job and creates a brand new job record with
// a fresh id, the same command and max retries, and a reset attempt
// counter. The original Dead record is left untouched for audit
// purposes.
func (c *Coordinator) RetryDead(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	dead, err := c.store.Get(id)
	if err != nil {
		return nil, err
	}
	if dead.State != job.Dead {
		return nil, ErrNotDead
	}
	return c.Enqueue(ctx, dead.Command, dead.MaxRetries)
}

// Delete removes a job's durable record. Removal from the in-flight
// pending channel is best-effort only: if a handle for id is already
// buffered in the channel, Dequeue will observe the missing (or
// no-longer-Pending) store record and discard it as ErrNoJob.
func (c *Coordinator) Delete(id uuid.UUID) error {
	return c.store.Delete(id)
}

// Get returns a single job by id, for introspection by the CLI and
// tests. It does not participate in any state transition.
func (c *Coordinator) Get(id uuid.UUID) (*job.Job, error) {
	return c.store.Get(id)
}

// List returns every job currently known to the store.
func (c *Coordinator) List() []*job.Job {
	return c.store.List()
}

// ListByState returns every job in the given state.
func (c *Coordinator) ListByState(st job.State) []*job.Job {
	return c.store.ListByState(st)
}

// Statistics returns a snapshot of store-wide counts.
func (c *Coordinator) Statistics() store.Statistics {
	return c.store.Statistics()
}

// DeleteByState removes every durable record in the given state and
// reports how many were removed.
func (c *Coordinator) DeleteByState(st job.State) (int, error) {
	return c.store.DeleteByState(st)
}

// SetMetadata attaches operator-supplied tags to a job's durable
// record. Metadata is inert: it never affects a transition decision,
// so setting it is not itself treated as a state transition.
func (c *Coordinator) SetMetadata(id uuid.UUID, metadata map[string]any) (*job.Job, error) {
	j, err := c.store.Get(id)
	if err != nil {
		return nil, err
	}
	j.Metadata = metadata
	j.UpdatedAt = time.Now()
	if err := c.store.Put(j); err != nil {
		return nil, fmt.Errorf("coordinator: set metadata: %w", err)
	}
	return j, nil
}
