package job

import "fmt"

// State represents the current lifecycle state of a Job.
//
// The state machine is:
//
//	Pending    -> Processing
//	Processing -> Completed
//	Processing -> Failed      (retry budget remains)
//	Processing -> Dead        (retry budget exhausted)
//	Failed     -> Pending     (via ProcessRetries, once NextRetryAt elapses)
//
// Unknown is reserved as a zero value and may be used to indicate an
// unspecified or invalid state in filtering contexts.
type State uint8

const (
	// Unknown represents an unspecified or invalid job state.
	// It is the zero value of State.
	Unknown State = iota

	// Pending indicates that the job is eligible for dequeuing.
	Pending

	// Processing indicates that the job has been dequeued and is
	// currently owned by a worker.
	Processing

	// Completed indicates successful execution. Terminal; queuectl never
	// re-executes a Completed job.
	Completed

	// Failed indicates that the most recent attempt failed but the
	// job's retry budget is not yet exhausted. NextRetryAt marks the
	// earliest time the retry scheduler may requeue it.
	Failed

	// Dead indicates that the job's retry budget is exhausted. Terminal
	// for the original id; only explicit operator action (RetryDead)
	// schedules further execution, under a fresh id.
	Dead
)

func stateToString(s State) string {
	switch s {
	case Pending:
		return "pending"
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

func stateFromString(s string) (State, error) {
	switch s {
	case "pending":
		return Pending, nil
	case "processing":
		return Processing, nil
	case "completed":
		return Completed, nil
	case "failed":
		return Failed, nil
	case "dead":
		return Dead, nil
	case "unknown":
		return Unknown, nil
	default:
		return 0, fmt.Errorf("job: unknown state %q", s)
	}
}

// ParseState converts a string representation of a state into a State
// value. Recognized values are the lower-case names: "pending",
// "processing", "completed", "failed", "dead", "unknown".
func ParseState(s string) (State, error) {
	return stateFromString(s)
}

// MarshalText implements encoding.TextMarshaler. States are encoded
// using their canonical lower-case names, matching the on-disk job
// store format.
func (s State) MarshalText() ([]byte, error) {
	return []byte(stateToString(s)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := stateFromString(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// String returns the canonical lower-case name of the state.
func (s State) String() string {
	return stateToString(s)
}

// Terminal reports whether s is a state from which a job never
// transitions on its own (Completed, Dead). Failed is not terminal: the
// retry scheduler moves it back to Pending once NextRetryAt elapses.
func (s State) Terminal() bool {
	return s == Completed || s == Dead
}
