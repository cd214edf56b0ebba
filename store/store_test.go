package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shivensaigal/queuectl/job"
	"github.com/shivensaigal/queuectl/store"
)

func newJob(command string) *job.Job {
	now := time.Now()
	return &job.Job{
		ID:         uuid.New(),
		Command:    command,
		MaxRetries: 3,
		CreatedAt:  now,
		UpdatedAt:  now,
		State:      job.Pending,
	}
}

func TestOpenEmptyWhenMissing(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "jobs.json"))
	if err != nil {
		t.Fatal(err)
	}
	if stats := s.Statistics(); stats.Total != 0 {
		t.Fatalf("expected empty store, got %d records", stats.Total)
	}
}

func TestPutGetRoundtrip(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "jobs.json"))
	if err != nil {
		t.Fatal(err)
	}
	j := newJob("echo hi")
	if err := s.Put(j); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Command != j.Command || got.State != job.Pending {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}

func TestGetNotFound(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "jobs.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(uuid.New()); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDurabilityAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.json")
	s, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	jobs := []*job.Job{newJob("a"), newJob("b"), newJob("c")}
	for _, j := range jobs {
		if err := s.Put(j); err != nil {
			t.Fatal(err)
		}
	}

	reopened, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	stats := reopened.Statistics()
	if stats.Total != 3 {
		t.Fatalf("expected 3 records after reopen, got %d", stats.Total)
	}
	for _, j := range jobs {
		got, err := reopened.Get(j.ID)
		if err != nil {
			t.Fatalf("job %s missing after reopen: %v", j.ID, err)
		}
		if got.Command != j.Command || got.State != j.State {
			t.Fatalf("job %s mismatch after reopen: %+v", j.ID, got)
		}
	}
}

func TestLoadResetsProcessingToPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.json")
	s, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	j := newJob("sleep 5")
	j.State = job.Processing
	if err := s.Put(j); err != nil {
		t.Fatal(err)
	}

	reopened, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.Get(j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != job.Pending {
		t.Fatalf("expected Processing to reset to Pending on load, got %v", got.State)
	}
}

func TestListReadyForRetry(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "jobs.json"))
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	ready := newJob("ready")
	ready.State = job.Failed
	ready.Attempts = 1
	ready.NextRetryAt = &past

	notYet := newJob("not-yet")
	notYet.State = job.Failed
	notYet.Attempts = 1
	notYet.NextRetryAt = &future

	// A Failed record can legitimately carry Attempts == MaxRetries
	// (coordinator.Fail only sends a job to Dead once attempts exceed
	// MaxRetries) and must still be retried once its timer elapses.
	atBudget := newJob("at-budget")
	atBudget.State = job.Failed
	atBudget.Attempts = atBudget.MaxRetries
	atBudget.NextRetryAt = &past

	noTimer := newJob("no-timer")
	noTimer.State = job.Failed
	noTimer.Attempts = 1

	for _, j := range []*job.Job{ready, notYet, atBudget, noTimer} {
		if err := s.Put(j); err != nil {
			t.Fatal(err)
		}
	}

	got := s.ListReadyForRetry(now)
	ids := map[uuid.UUID]bool{}
	for _, j := range got {
		ids[j.ID] = true
	}
	if !ids[ready.ID] || !ids[noTimer.ID] || !ids[atBudget.ID] {
		t.Fatalf("expected ready, no-timer, and at-budget jobs to be ready, got %v", got)
	}
	if ids[notYet.ID] {
		t.Fatalf("expected not-yet job excluded, got %v", got)
	}
}

func TestDeleteByState(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "jobs.json"))
	if err != nil {
		t.Fatal(err)
	}
	dead1 := newJob("d1")
	dead1.State = job.Dead
	dead2 := newJob("d2")
	dead2.State = job.Dead
	pending := newJob("p")

	for _, j := range []*job.Job{dead1, dead2, pending} {
		if err := s.Put(j); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.DeleteByState(job.Dead)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
	if _, err := s.Get(dead1.ID); err != store.ErrNotFound {
		t.Fatalf("expected dead1 removed")
	}
	if _, err := s.Get(pending.ID); err != nil {
		t.Fatalf("expected pending job kept: %v", err)
	}
}
