package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/shivensaigal/queuectl/job"
)

// timeLayout is ISO-8601 local date-time without a timezone offset, as
// required by the persistence file format.
const timeLayout = "2006-01-02T15:04:05"

func formatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.Local)
}

// record is the on-disk representation of a job.Job: flat, snake_case,
// string timestamps. This is the exact wire format the persistence
// file must carry; job.Job itself stays a plain Go-native type.
type record struct {
	ID           uuid.UUID      `json:"id"`
	Command      string         `json:"command"`
	State        string         `json:"state"`
	Attempts     uint32         `json:"attempts"`
	MaxRetries   uint32         `json:"max_retries"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
	ErrorMessage *string        `json:"error_message"`
	NextRetryAt  *string        `json:"next_retry_at"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func toRecord(j *job.Job) (record, error) {
	rec := record{
		ID:           j.ID,
		Command:      j.Command,
		State:        j.State.String(),
		Attempts:     j.Attempts,
		MaxRetries:   j.MaxRetries,
		CreatedAt:    formatTime(j.CreatedAt),
		UpdatedAt:    formatTime(j.UpdatedAt),
		ErrorMessage: j.ErrorMessage,
		Metadata:     j.Metadata,
	}
	if j.NextRetryAt != nil {
		s := formatTime(*j.NextRetryAt)
		rec.NextRetryAt = &s
	}
	return rec, nil
}

func fromRecord(rec record) (*job.Job, error) {
	state, err := job.ParseState(rec.State)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j := &job.Job{
		ID:           rec.ID,
		Command:      rec.Command,
		State:        state,
		Attempts:     rec.Attempts,
		MaxRetries:   rec.MaxRetries,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		ErrorMessage: rec.ErrorMessage,
		Metadata:     rec.Metadata,
	}
	if rec.NextRetryAt != nil {
		at, err := parseTime(*rec.NextRetryAt)
		if err != nil {
			return nil, err
		}
		j.NextRetryAt = &at
	}
	return j, nil
}
