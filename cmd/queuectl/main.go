// Command queuectl is the operator-facing entry point: a durable,
// locally-persistent shell command queue with retrying workers.
package main

import (
	"os"

	"github.com/shivensaigal/queuectl/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
