// Package queue provides the pending channel: the FIFO hand-off
// between enqueuers (the coordinator) and consumers (workers).
//
// Channel carries job.Handle snapshots rather than live *job.Job
// references — the store is the only authoritative, durable copy of a
// job's state. Consumers block with a timeout when the channel is
// empty; ordering is FIFO for a single producer, with no ordering
// guarantee across interleaved producers.
package queue
