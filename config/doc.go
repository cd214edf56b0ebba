// Package config loads and holds queuectl's on-disk configuration:
// retry policy, worker concurrency, the data file location, and the
// job and retry-scheduler timing knobs. It is built on
// github.com/spf13/viper, the configuration library the retrieval
// pack's CLI applications converge on.
package config
