// Package exec runs a job's command line as a subprocess and reports
// a domain outcome (success, failure, timeout, or spawn error)
// instead of propagating process failures as Go errors — the
// distinction between "the command ran and failed" and "the executor
// itself could not run it" matters to the coordinator, which needs
// the former to count toward a job's retry budget.
package exec
