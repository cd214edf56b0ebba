// Package store provides the durable, thread-safe job store: the
// single source of truth for every job's state.
//
// Store keeps an in-memory map from job id to job.Job plus an index by
// state, and flushes the full logical snapshot to stable storage on
// every mutation. The on-disk format is a single pretty-printed JSON
// document, an ordered array of job records using the snake_case keys
// and local, timezone-free timestamps specified for the data file.
//
// Durability is achieved by serializing the complete record set to a
// temporary sibling file and atomically renaming it over the primary
// file: after a crash the store reflects either the pre- or the
// post-mutation state, never a torn write.
//
// A single sync.RWMutex guards both the in-memory map and the on-disk
// file. Writers are serialized; readers proceed concurrently when no
// writer holds the lock. Store itself never rolls back in-memory state
// if a write fails — the caller (coordinator) decides how to react.
package store
