// Package worker hosts the two background actors that drive a queue
// without an operator present: the Pool, which dequeues and executes
// jobs concurrently, and the RetryScheduler, which periodically moves
// timed-out Failed jobs back to Pending. The Pool's Start is
// idempotent-by-flag (a second call warns and no-ops); the
// RetryScheduler enforces a strict start-once/stop-once lifecycle via
// an atomic CAS flag.
package worker
