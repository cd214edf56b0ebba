package job

import (
	"time"

	"github.com/google/uuid"
)

// Job is the single durable entity in queuectl: a shell command plus
// its lifecycle state and retry scheduling metadata.
//
// ID, Command and MaxRetries are set once at enqueue time and never
// change afterward. State, Attempts, UpdatedAt, ErrorMessage and
// NextRetryAt are mutated only by the coordinator package, which is
// the single point of truth for every transition; the one exception is
// store.Open, which resets Processing records to Pending on load.
//
// See spec section 3 for the invariants that must hold after every
// observable transition.
type Job struct {
	ID         uuid.UUID
	Command    string
	MaxRetries uint32

	CreatedAt time.Time
	UpdatedAt time.Time

	State    State
	Attempts uint32

	// ErrorMessage is set on Failed/Dead and cleared on Completed or
	// on a retry-driven return to Pending.
	ErrorMessage *string

	// NextRetryAt is set when entering Failed and cleared on every
	// other transition. It is always in the future of UpdatedAt.
	NextRetryAt *time.Time

	// Metadata is operator-supplied tagging attached at enqueue time.
	// It plays no role in execution; Command is always the only thing
	// that is run.
	Metadata map[string]any
}

// Clone returns a deep copy of j, safe to hand to a caller that must
// not observe subsequent mutation of the authoritative record.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	clone := *j
	if j.ErrorMessage != nil {
		msg := *j.ErrorMessage
		clone.ErrorMessage = &msg
	}
	if j.NextRetryAt != nil {
		at := *j.NextRetryAt
		clone.NextRetryAt = &at
	}
	if j.Metadata != nil {
		clone.Metadata = make(map[string]any, len(j.Metadata))
		for k, v := range j.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// Handle is the minimal snapshot of a Job carried across the pending
// channel between the coordinator and a worker. It deliberately does
// not hold a live reference to the authoritative record: the channel
// and the worker must re-read or re-derive everything else from the
// store when applying an outcome. This mirrors the design note that a
// job must never be concurrently mutated from two sites.
type Handle struct {
	ID         uuid.UUID
	Command    string
	MaxRetries uint32
	Attempts   uint32
}

// NewHandle builds a Handle snapshot from the authoritative record.
func NewHandle(j *Job) Handle {
	return Handle{
		ID:         j.ID,
		Command:    j.Command,
		MaxRetries: j.MaxRetries,
		Attempts:   j.Attempts,
	}
}
