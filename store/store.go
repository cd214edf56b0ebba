package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shivensaigal/queuectl/job"
)

// ErrNotFound is returned when a lookup or delete targets an id that
// does not exist in the store.
var ErrNotFound = errors.New("store: job not found")

// Statistics is the aggregate view returned by Store.Statistics.
type Statistics struct {
	Counts         map[job.State]int
	Total          int
	LastSnapshotAt time.Time
}

// Store is the durable, thread-safe job store described in spec
// section 4.1: an in-memory id -> job.Job map, an index by state, and
// a snapshot-to-disk write on every mutation.
type Store struct {
	mu   sync.RWMutex
	path string

	jobs    map[uuid.UUID]*job.Job
	byState map[job.State]map[uuid.UUID]struct{}

	lastSnapshotAt time.Time
}

// Open loads an existing store from path, or initializes an empty one
// if path does not exist. A malformed, non-empty file is a fatal
// startup error, matching spec section 4.1's failure semantics.
//
// Any record found in Processing state is reset to Pending: a prior
// run may have crashed mid-execution, and queuectl resolves this
// by treating the attempt as unobserved, relaxing at-most-once to
// at-least-once — a relaxation the system already makes its contract.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		jobs:    make(map[uuid.UUID]*job.Job),
		byState: make(map[job.State]map[uuid.UUID]struct{}),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("store: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("store: %s is malformed: %w", s.path, err)
	}
	now := time.Now()
	for _, rec := range records {
		j, err := fromRecord(rec)
		if err != nil {
			return fmt.Errorf("store: %s contains an invalid record: %w", s.path, err)
		}
		if j.State == job.Processing {
			j.State = job.Pending
			j.UpdatedAt = now
		}
		s.jobs[j.ID] = j
		s.indexAdd(j.ID, j.State)
	}
	if info, err := os.Stat(s.path); err == nil {
		s.lastSnapshotAt = info.ModTime()
	}
	return nil
}

func (s *Store) indexAdd(id uuid.UUID, st job.State) {
	bucket, ok := s.byState[st]
	if !ok {
		bucket = make(map[uuid.UUID]struct{})
		s.byState[st] = bucket
	}
	bucket[id] = struct{}{}
}

func (s *Store) indexRemove(id uuid.UUID, st job.State) {
	if bucket, ok := s.byState[st]; ok {
		delete(bucket, id)
	}
}

// Put upserts job by id. On return either the new state is durable on
// disk, or the call fails with a storage error and the in-memory state
// is left exactly as it was after the in-memory mutation (the store
// does not roll back; the coordinator decides how to react).
func (s *Store) Put(j *job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.jobs[j.ID]; ok {
		s.indexRemove(j.ID, old.State)
	}
	stored := j.Clone()
	s.jobs[j.ID] = stored
	s.indexAdd(j.ID, stored.State)

	return s.snapshotLocked()
}

// Get returns the record for id, or ErrNotFound.
func (s *Store) Get(id uuid.UUID) (*job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j.Clone(), nil
}

// ListByState returns a snapshot of all records whose state equals st.
func (s *Store) ListByState(st job.State) []*job.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.byState[st]
	ret := make([]*job.Job, 0, len(bucket))
	for id := range bucket {
		ret = append(ret, s.jobs[id].Clone())
	}
	return ret
}

// List returns a snapshot of every record in the store.
func (s *Store) List() []*job.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]*job.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		ret = append(ret, j.Clone())
	}
	return ret
}

// ListReadyForRetry returns all Failed records whose NextRetryAt has
// elapsed as of now (a nil NextRetryAt is treated as immediately
// ready). Whether a job's retry budget is exhausted is decided once,
// by coordinator.Fail, at the moment it fails: a record only ever
// lands in Failed when it still has a retry coming (Attempts can
// legitimately equal MaxRetries here — see coordinator.Fail), so this
// does not re-check Attempts against MaxRetries itself.
func (s *Store) ListReadyForRetry(now time.Time) []*job.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.byState[job.Failed]
	ret := make([]*job.Job, 0, len(bucket))
	for id := range bucket {
		j := s.jobs[id]
		if j.NextRetryAt != nil && j.NextRetryAt.After(now) {
			continue
		}
		ret = append(ret, j.Clone())
	}
	return ret
}

// Delete removes id from the store. Returns ErrNotFound if absent.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	s.indexRemove(id, j.State)
	return s.snapshotLocked()
}

// DeleteByState removes every record in state st and returns the
// count removed, in a single durable snapshot write.
func (s *Store) DeleteByState(st job.State) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.byState[st]
	count := len(bucket)
	for id := range bucket {
		delete(s.jobs, id)
	}
	delete(s.byState, st)
	if count == 0 {
		return 0, nil
	}
	return count, s.snapshotLocked()
}

// Statistics returns counts grouped by state plus bookkeeping about
// the last durable snapshot: the time of this Store's last write, or,
// before its first write, the modification time of the data file it
// loaded.
func (s *Store) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[job.State]int, len(s.byState))
	total := 0
	for st, bucket := range s.byState {
		counts[st] = len(bucket)
		total += len(bucket)
	}
	return Statistics{
		Counts:         counts,
		Total:          total,
		LastSnapshotAt: s.lastSnapshotAt,
	}
}

// snapshotLocked serializes the full record set and atomically
// replaces the primary file. The caller must hold s.mu for writing.
func (s *Store) snapshotLocked() error {
	records := make([]record, 0, len(s.jobs))
	for _, j := range s.jobs {
		rec, err := toRecord(j)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("store: rename %s to %s: %w", tmp, s.path, err)
	}
	s.lastSnapshotAt = time.Now()
	return nil
}
