package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newEnqueueCommand() *cobra.Command {
	var maxRetries uint32
	var meta []string

	cmd := &cobra.Command{
		Use:   "enqueue <command|json>",
		Short: "Enqueue a shell command for the worker pool to run",
		Long: `Enqueue accepts either a plain shell command string or a JSON object
with a required "command" field and an optional "max_retries" field,
e.g. '{"command": "echo hi", "max_retries": 5}'. A bare string argument
is queued as-is with --max-retries (default 3).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}

			command := args[0]
			effectiveMaxRetries := maxRetries
			if strings.HasPrefix(strings.TrimSpace(command), "{") {
				var payload struct {
					Command    string  `json:"command"`
					MaxRetries *uint32 `json:"max_retries"`
				}
				if err := json.Unmarshal([]byte(command), &payload); err != nil {
					return fmt.Errorf("enqueue: invalid json: %w", err)
				}
				if payload.Command == "" {
					return fmt.Errorf("enqueue: json object is missing required \"command\" field")
				}
				command = payload.Command
				if payload.MaxRetries != nil {
					effectiveMaxRetries = *payload.MaxRetries
				}
			}

			j, err := a.Coordinator.Enqueue(cmd.Context(), command, effectiveMaxRetries)
			if err != nil {
				return fmt.Errorf("enqueue: %w", err)
			}

			if len(meta) > 0 {
				tags := make(map[string]any, len(meta))
				for _, kv := range meta {
					k, v, ok := strings.Cut(kv, "=")
					if !ok {
						return fmt.Errorf("enqueue: --meta %q is not in key=value form", kv)
					}
					tags[k] = v
				}
				if _, err := a.Coordinator.SetMetadata(j.ID, tags); err != nil {
					return fmt.Errorf("enqueue: attach metadata: %w", err)
				}
			}

			fmt.Println(j.ID)
			return nil
		},
	}

	cmd.Flags().Uint32Var(&maxRetries, "max-retries", 3, "maximum retry attempts before the job moves to the dead letter queue")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "key=value metadata to attach to the job (repeatable)")
	return cmd
}
