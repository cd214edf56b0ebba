// Package coordinator owns every state transition a job can make. No
// other package is allowed to write job.State; the store and the
// queue are the coordinator's collaborators, not independent actors.
//
// Grounded on puller.go's Pull/Complete/Return/Kill shape and the
// per-method transition bodies in sql/puller.go, generalized from a
// SQL UPDATE...RETURNING statement to a store.Get/mutate/store.Put
// sequence guarded by the store's own lock.
package coordinator
