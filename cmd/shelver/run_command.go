package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"shelver/internal/archive"
	"shelver/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Archive the oldest pending task",
		Long: `Archive the oldest pending task under the archive lock.

Exits 0 when the task completed, when another run holds the lock, or when the
queue is empty. Exits 1 on any failure; the lock is then left held and later
runs report it as stuck until it is released with "shelver locks release".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withArchiver(func(arch *archive.Archiver, _ *store.Store) error {
				outcome, err := arch.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, outcomeView(outcome))
				}
				printOutcome(cmd.OutOrStdout(), outcome)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run outcome as JSON")
	return cmd
}

type runOutcomeJSON struct {
	Outcome     string   `json:"outcome"`
	RunID       string   `json:"run_id"`
	TaskID      int64    `json:"task_id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Destination string   `json:"destination,omitempty"`
	Linked      []string `json:"linked,omitempty"`
	Existing    []string `json:"already_linked,omitempty"`
	Replaced    []string `json:"replaced,omitempty"`
	Skipped     int      `json:"skipped,omitempty"`
	LockName    string   `json:"lock_name,omitempty"`
	LockExpires string   `json:"lock_expires_at,omitempty"`
}

func outcomeView(outcome archive.Outcome) runOutcomeJSON {
	view := runOutcomeJSON{
		Outcome:     outcome.Kind.String(),
		RunID:       outcome.RunID,
		Destination: outcome.Destination,
		Linked:      outcome.Result.Linked,
		Existing:    outcome.Result.AlreadyLinked,
		Replaced:    outcome.Result.Replaced,
		Skipped:     len(outcome.Result.Skipped),
	}
	if outcome.Task != nil {
		view.TaskID = outcome.Task.ID
		view.Name = outcome.Task.Name
	}
	if outcome.Blocker != nil {
		view.LockName = outcome.Blocker.Name
		view.LockExpires = outcome.Blocker.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return view
}

func printOutcome(out io.Writer, outcome archive.Outcome) {
	switch outcome.Kind {
	case archive.OutcomeIdle:
		fmt.Fprintln(out, "No pending tasks")
	case archive.OutcomeSkippedLocked:
		if outcome.Blocker != nil {
			fmt.Fprintf(out, "Skipped: lock %q held until %s\n",
				outcome.Blocker.Name, outcome.Blocker.ExpiresAt.Local().Format(time.DateTime))
			return
		}
		fmt.Fprintln(out, "Skipped: lock held")
	case archive.OutcomeCompleted:
		if outcome.Task != nil {
			fmt.Fprintf(out, "Archived task %d (%s)\n", outcome.Task.ID, outcome.Task.Name)
		}
		fmt.Fprintf(out, "Destination: %s\n", outcome.Destination)
		result := outcome.Result
		fmt.Fprintf(out, "Files: %d linked, %d already linked, %d replaced, %d skipped\n",
			len(result.Linked), len(result.AlreadyLinked), len(result.Replaced), len(result.Skipped))
	}
}
