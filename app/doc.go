// Package app wires every component into one explicitly constructed
// value: no package-level singletons, no process-wide mutable state.
// It mirrors the teacher's constructor-injection style
// (NewWorker(puller, handler, config, log) takes everything it needs)
// scaled up to the whole application.
package app
