// Package deadletter gives operators a surface for inspecting and
// acting on jobs that exhausted their retry budget. It only ever
// addresses Dead records directly, so — unlike the teacher's general
// Cleaner, which validates a caller-supplied status against the set
// of terminal states — it has no status parameter to guard.
package deadletter
