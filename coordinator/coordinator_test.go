package coordinator_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shivensaigal/queuectl/coordinator"
	"github.com/shivensaigal/queuectl/job"
	"github.com/shivensaigal/queuectl/queue"
	"github.com/shivensaigal/queuectl/store"
)

func newCoordinator(t *testing.T, backoffBase uint32) *coordinator.Coordinator {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "jobs.json"))
	if err != nil {
		t.Fatal(err)
	}
	return coordinator.New(st, queue.New(16), backoffBase, nil)
}

func TestEnqueueDequeueRoundtrip(t *testing.T) {
	c := newCoordinator(t, 2)
	ctx := context.Background()

	enqueued, err := c.Enqueue(ctx, "echo hi", 3)
	if err != nil {
		t.Fatal(err)
	}
	if enqueued.State != job.Pending {
		t.Fatalf("expected Pending, got %v", enqueued.State)
	}

	dequeued, err := c.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if dequeued.ID != enqueued.ID || dequeued.State != job.Processing {
		t.Fatalf("expected matching Processing job, got %+v", dequeued)
	}
}

func TestEnqueueRejectsEmptyCommand(t *testing.T) {
	c := newCoordinator(t, 2)
	if _, err := c.Enqueue(context.Background(), "", 3); err != coordinator.ErrEmptyCommand {
		t.Fatalf("expected ErrEmptyCommand, got %v", err)
	}
}

func TestDequeueTimesOutWhenEmpty(t *testing.T) {
	c := newCoordinator(t, 2)
	if _, err := c.Dequeue(context.Background(), 20*time.Millisecond); err != coordinator.ErrNoJob {
		t.Fatalf("expected ErrNoJob, got %v", err)
	}
}

func TestCompleteClearsErrorAndRetryTimer(t *testing.T) {
	c := newCoordinator(t, 2)
	ctx := context.Background()
	j, _ := c.Enqueue(ctx, "true", 3)
	dq, err := c.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	done, err := c.Complete(dq.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.State != job.Completed || done.ErrorMessage != nil || done.NextRetryAt != nil {
		t.Fatalf("unexpected completed job state: %+v", done)
	}
	_ = j
}

func TestCompleteRejectsNonProcessing(t *testing.T) {
	c := newCoordinator(t, 2)
	j, _ := c.Enqueue(context.Background(), "true", 3)
	if _, err := c.Complete(j.ID); err != coordinator.ErrNotProcessing {
		t.Fatalf("expected ErrNotProcessing, got %v", err)
	}
}

// TestRetryScenarioFromSpec walks the worked example: max_retries=2,
// backoff_base=2. Failure 1 and 2 land in Failed with attempts 1 and
// 2 and growing delays; failure 3 lands in Dead with attempts 3.
func TestRetryScenarioFromSpec(t *testing.T) {
	c := newCoordinator(t, 2)
	ctx := context.Background()

	enqueued, err := c.Enqueue(ctx, "false", 2)
	if err != nil {
		t.Fatal(err)
	}

	dq, err := c.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	f1, err := c.Fail(dq.ID, "exit code 1")
	if err != nil {
		t.Fatal(err)
	}
	if f1.State != job.Failed || f1.Attempts != 1 {
		t.Fatalf("expected Failed attempts=1, got %+v", f1)
	}
	if f1.NextRetryAt == nil {
		t.Fatal("expected a NextRetryAt after first failure")
	}
	delay1 := f1.NextRetryAt.Sub(f1.UpdatedAt)
	if delay1 < 1500*time.Millisecond || delay1 > 2500*time.Millisecond {
		t.Fatalf("expected ~2s delay after first failure, got %v", delay1)
	}

	moved, err := c.ProcessRetries(ctx, f1.NextRetryAt.Add(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if moved != 1 {
		t.Fatalf("expected 1 job moved back to pending, got %d", moved)
	}

	dq2, err := c.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := c.Fail(dq2.ID, "exit code 1")
	if err != nil {
		t.Fatal(err)
	}
	if f2.State != job.Failed || f2.Attempts != 2 {
		t.Fatalf("expected Failed attempts=2 on second failure, got %+v", f2)
	}
	delay2 := f2.NextRetryAt.Sub(f2.UpdatedAt)
	if delay2 < 3500*time.Millisecond || delay2 > 4500*time.Millisecond {
		t.Fatalf("expected ~4s delay after second failure, got %v", delay2)
	}

	if _, err := c.ProcessRetries(ctx, f2.NextRetryAt.Add(time.Millisecond)); err != nil {
		t.Fatal(err)
	}
	dq3, err := c.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	f3, err := c.Fail(dq3.ID, "exit code 1")
	if err != nil {
		t.Fatal(err)
	}
	if f3.State != job.Dead || f3.Attempts != 3 {
		t.Fatalf("expected Dead attempts=3 on third failure, got %+v", f3)
	}
	if f3.NextRetryAt != nil {
		t.Fatal("expected no retry timer once dead")
	}

	_ = enqueued
}

func TestBoundaryMaxRetriesZeroGoesDeadImmediately(t *testing.T) {
	c := newCoordinator(t, 2)
	ctx := context.Background()
	_, err := c.Enqueue(ctx, "false", 0)
	if err != nil {
		t.Fatal(err)
	}
	dq, err := c.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	failed, err := c.Fail(dq.ID, "boom")
	if err != nil {
		t.Fatal(err)
	}
	if failed.State != job.Dead || failed.Attempts != 1 {
		t.Fatalf("expected immediate Dead with attempts=1, got %+v", failed)
	}
}

func TestRetryDeadCreatesNewRecord(t *testing.T) {
	c := newCoordinator(t, 2)
	ctx := context.Background()
	_, err := c.Enqueue(ctx, "false", 0)
	if err != nil {
		t.Fatal(err)
	}
	dq, err := c.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	dead, err := c.Fail(dq.ID, "boom")
	if err != nil {
		t.Fatal(err)
	}

	retried, err := c.RetryDead(ctx, dead.ID)
	if err != nil {
		t.Fatal(err)
	}
	if retried.ID == dead.ID {
		t.Fatal("expected a fresh id for the retried job")
	}
	if retried.State != job.Pending || retried.Attempts != 0 {
		t.Fatalf("expected fresh Pending job with 0 attempts, got %+v", retried)
	}
	if retried.Command != dead.Command {
		t.Fatalf("expected command to carry over, got %q", retried.Command)
	}
}

func TestRetryDeadRejectsNonDead(t *testing.T) {
	c := newCoordinator(t, 2)
	j, err := c.Enqueue(context.Background(), "true", 3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.RetryDead(context.Background(), j.ID); err != coordinator.ErrNotDead {
		t.Fatalf("expected ErrNotDead, got %v", err)
	}
}

func TestProcessRetriesDoesNotBumpAttempts(t *testing.T) {
	c := newCoordinator(t, 2)
	ctx := context.Background()
	_, err := c.Enqueue(ctx, "false", 3)
	if err != nil {
		t.Fatal(err)
	}
	dq, err := c.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	failed, err := c.Fail(dq.ID, "boom")
	if err != nil {
		t.Fatal(err)
	}
	before := failed.Attempts

	if _, err := c.ProcessRetries(ctx, failed.NextRetryAt.Add(time.Millisecond)); err != nil {
		t.Fatal(err)
	}
	pending, err := c.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if pending.Attempts != before {
		t.Fatalf("expected ProcessRetries to leave attempts unchanged, got %d want %d", pending.Attempts, before)
	}
}

func TestRequeuePendingReoffersJobsAcrossRestart(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "jobs.json")
	ctx := context.Background()

	st1, err := store.Open(dataPath)
	if err != nil {
		t.Fatal(err)
	}
	first := coordinator.New(st1, queue.New(16), 2, nil)
	enqueued, err := first.Enqueue(ctx, "true", 3)
	if err != nil {
		t.Fatal(err)
	}
	// Simulate the process stopping before any worker ever dequeues
	// this job: a fresh Coordinator is built on a fresh Channel over
	// the same durable store, exactly as app.Open does on restart.

	st2, err := store.Open(dataPath)
	if err != nil {
		t.Fatal(err)
	}
	second := coordinator.New(st2, queue.New(16), 2, nil)

	if _, err := second.Dequeue(ctx, 50*time.Millisecond); err != coordinator.ErrNoJob {
		t.Fatalf("expected an empty channel before requeuing, got %v", err)
	}

	count, err := second.RequeuePending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 job requeued, got %d", count)
	}

	dq, err := second.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if dq.ID != enqueued.ID {
		t.Fatalf("expected the job left over from the previous run to be dequeued, got %v", dq.ID)
	}
}
