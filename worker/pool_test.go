package worker_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/shivensaigal/queuectl/coordinator"
	"github.com/shivensaigal/queuectl/exec"
	"github.com/shivensaigal/queuectl/job"
	"github.com/shivensaigal/queuectl/queue"
	"github.com/shivensaigal/queuectl/store"
	"github.com/shivensaigal/queuectl/worker"
)

func newTestCoordinator(t *testing.T) *coordinator.Coordinator {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "jobs.json"))
	if err != nil {
		t.Fatal(err)
	}
	return coordinator.New(st, queue.New(16), 2, nil)
}

func TestPoolCompletesSuccessfulJob(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix-only test command")
	}
	co := newTestCoordinator(t)
	ctx := context.Background()
	enqueued, err := co.Enqueue(ctx, "true", 3)
	if err != nil {
		t.Fatal(err)
	}

	p := worker.NewPool(co, exec.New(time.Second), time.Minute, nil)
	if err := p.Start(ctx, 2); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := co.Get(enqueued.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.State == job.Completed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete in time, last state %v", got.State)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestPoolStartIsIdempotent(t *testing.T) {
	co := newTestCoordinator(t)
	p := worker.NewPool(co, exec.New(time.Second), time.Minute, nil)
	ctx := context.Background()

	if err := p.Start(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := p.Start(ctx, 5); err != nil {
		t.Fatalf("expected second Start to be a no-op, got error %v", err)
	}
	if status := p.Status(); status.Concurrency != 1 {
		t.Fatalf("expected concurrency to remain 1 after no-op Start, got %d", status.Concurrency)
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestPoolStopDoubleStopErrors(t *testing.T) {
	co := newTestCoordinator(t)
	p := worker.NewPool(co, exec.New(time.Second), time.Minute, nil)
	ctx := context.Background()

	if err := p.Start(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(); err != worker.ErrDoubleStopped {
		t.Fatalf("expected ErrDoubleStopped, got %v", err)
	}
}

func TestAddWorkersRequiresRunning(t *testing.T) {
	co := newTestCoordinator(t)
	p := worker.NewPool(co, exec.New(time.Second), time.Minute, nil)

	if err := p.AddWorkers(2); err != worker.ErrNotRunning {
		t.Fatalf("expected ErrNotRunning before Start, got %v", err)
	}

	ctx := context.Background()
	if err := p.Start(ctx, 1); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	if err := p.AddWorkers(2); err != nil {
		t.Fatal(err)
	}
	if status := p.Status(); status.Concurrency != 3 {
		t.Fatalf("expected concurrency 3 after AddWorkers(2), got %d", status.Concurrency)
	}
}

func TestPoolStatusReflectsLifecycle(t *testing.T) {
	co := newTestCoordinator(t)
	p := worker.NewPool(co, exec.New(time.Second), time.Minute, nil)

	if status := p.Status(); status.Running {
		t.Fatal("expected pool not running before Start")
	}

	ctx := context.Background()
	if err := p.Start(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if status := p.Status(); !status.Running || status.Concurrency != 3 {
		t.Fatalf("expected running with concurrency 3, got %+v", status)
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
	if status := p.Status(); status.Running {
		t.Fatal("expected pool not running after Stop")
	}
}
