// Package job defines the stateful representation of a shell-command job
// managed by queuectl's queue.
//
// A Job is the single durable entity in the system: it carries the
// command to execute, the current lifecycle state, and the scheduling
// metadata (attempts, retry budget, next eligible retry time) needed to
// drive retries and dead-lettering. Unlike a generic message queue,
// queuectl does not separate "transport" from "delivery state" — there
// is exactly one record per job, and it is mutated only by the
// coordinator package (apart from store.Open resetting Processing
// records to Pending on load).
//
// Job values returned by Store or Coordinator methods are snapshots.
// Mutating a returned Job does not change queue state; transitions must
// go through the coordinator package.
package job
