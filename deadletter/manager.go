package deadletter

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shivensaigal/queuectl/coordinator"
	"github.com/shivensaigal/queuectl/job"
)

// Statistics summarizes the current dead letter queue.
type Statistics struct {
	Count        int
	Oldest       *time.Time
	Newest       *time.Time
	TimeoutCount int
}

// Manager operates on the subset of jobs in the Dead state.
// Generalizes cleaner.go's Cleaner interface and sql/cleaner.go's
// status-and-age delete, widened to the full list/filter/retry/
// delete/stats surface a dead letter queue needs.
type Manager struct {
	coordinator *coordinator.Coordinator
}

// New builds a Manager over co.
func New(co *coordinator.Coordinator) *Manager {
	return &Manager{coordinator: co}
}

// List returns every Dead job.
func (m *Manager) List() []*job.Job {
	return m.coordinator.ListByState(job.Dead)
}

// Get returns a single Dead job by id, or coordinator.ErrNotDead if
// id refers to a job that exists but is not Dead.
func (m *Manager) Get(id uuid.UUID) (*job.Job, error) {
	j, err := m.coordinator.Get(id)
	if err != nil {
		return nil, err
	}
	if j.State != job.Dead {
		return nil, coordinator.ErrNotDead
	}
	return j, nil
}

// FilterByErrorSubstring returns Dead jobs whose error message
// contains substr (case-insensitive).
func (m *Manager) FilterByErrorSubstring(substr string) []*job.Job {
	substr = strings.ToLower(substr)
	var out []*job.Job
	for _, j := range m.List() {
		if j.ErrorMessage != nil && strings.Contains(strings.ToLower(*j.ErrorMessage), substr) {
			out = append(out, j)
		}
	}
	return out
}

// FilterByTimeRange returns Dead jobs whose UpdatedAt (the moment
// they entered the Dead state) falls within [from, to].
func (m *Manager) FilterByTimeRange(from, to time.Time) []*job.Job {
	var out []*job.Job
	for _, j := range m.List() {
		if !j.UpdatedAt.Before(from) && !j.UpdatedAt.After(to) {
			out = append(out, j)
		}
	}
	return out
}

// Retry creates a fresh Pending job from the Dead job id, as
// coordinator.RetryDead describes.
func (m *Manager) Retry(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	return m.coordinator.RetryDead(ctx, id)
}

// RetryMany retries each id in ids, collecting the new jobs created.
// A failure on one id does not stop the rest; the first error
// encountered is returned alongside every job that was retried.
func (m *Manager) RetryMany(ctx context.Context, ids []uuid.UUID) ([]*job.Job, error) {
	var retried []*job.Job
	var firstErr error
	for _, id := range ids {
		j, err := m.coordinator.RetryDead(ctx, id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		retried = append(retried, j)
	}
	return retried, firstErr
}

// RetryAll retries every job currently in the dead letter queue.
func (m *Manager) RetryAll(ctx context.Context) ([]*job.Job, error) {
	ids := make([]uuid.UUID, 0)
	for _, j := range m.List() {
		ids = append(ids, j.ID)
	}
	return m.RetryMany(ctx, ids)
}

// Delete permanently removes one Dead job's record. It returns
// coordinator.ErrNotDead, and removes nothing, if id is not Dead.
func (m *Manager) Delete(id uuid.UUID) error {
	if _, err := m.Get(id); err != nil {
		return err
	}
	return m.coordinator.Delete(id)
}

// DeleteMany permanently removes several Dead jobs' records, counting
// how many were actually removed.
func (m *Manager) DeleteMany(ids []uuid.UUID) (int, error) {
	deleted := 0
	var firstErr error
	for _, id := range ids {
		if err := m.Delete(id); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	return deleted, firstErr
}

// ClearAll permanently removes every Dead job.
func (m *Manager) ClearAll() (int, error) {
	return m.coordinator.DeleteByState(job.Dead)
}

// ClearOlderThan permanently removes Dead jobs whose UpdatedAt is
// strictly before the given time.
func (m *Manager) ClearOlderThan(before time.Time) (int, error) {
	cleared := 0
	for _, j := range m.List() {
		if j.UpdatedAt.Before(before) {
			if err := m.coordinator.Delete(j.ID); err != nil {
				return cleared, err
			}
			cleared++
		}
	}
	return cleared, nil
}

// Statistics summarizes the current dead letter queue: total count,
// the oldest and newest entry by UpdatedAt, and how many carry a
// timeout error message (one containing "timed out", matched
// case-sensitively).
func (m *Manager) Statistics() Statistics {
	dead := m.List()
	stats := Statistics{Count: len(dead)}
	for _, j := range dead {
		if stats.Oldest == nil || j.UpdatedAt.Before(*stats.Oldest) {
			t := j.UpdatedAt
			stats.Oldest = &t
		}
		if stats.Newest == nil || j.UpdatedAt.After(*stats.Newest) {
			t := j.UpdatedAt
			stats.Newest = &t
		}
		if j.ErrorMessage != nil && strings.Contains(*j.ErrorMessage, "timed out") {
			stats.TimeoutCount++
		}
	}
	return stats
}
