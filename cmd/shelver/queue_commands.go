package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shelver/internal/store"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the task queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueCancelCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]column{left("Status"), right("Count")}, rows)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func buildQueueStatusRows(stats map[store.Status]int) [][]string {
	var rows [][]string
	for _, status := range store.AllStatuses() {
		count := stats[status]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{titleCase(status.String()), strconv.Itoa(count)})
	}
	return rows
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued tasks in processing order",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(listStatuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				tasks, err := st.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]column{right("ID"), left("Name"), left("Category"), left("Key"), left("Status"), left("Created")},
					buildQueueListRows(tasks),
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by status (pending, doing, done, cancelled)")
	return cmd
}

func parseStatuses(values []string) ([]store.Status, error) {
	var statuses []store.Status
	for _, value := range values {
		status, ok := store.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func buildQueueListRows(tasks []*store.Task) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []string{
			strconv.FormatInt(task.ID, 10),
			task.Name,
			task.Category,
			taskKey(task),
			task.Status.String(),
			formatTime(task.CreatedAt),
		})
	}
	return rows
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				task, err := st.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, taskView(task))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Task %d\n", task.ID)
				fmt.Fprintf(out, "  Name:         %s\n", task.Name)
				fmt.Fprintf(out, "  Category:     %s\n", task.Category)
				fmt.Fprintf(out, "  Content:      %d %s\n", task.Tags.Content.ID, task.Tags.Content.Name)
				fmt.Fprintf(out, "  Season:       %d\n", task.Tags.Season)
				fmt.Fprintf(out, "  Key:          %s\n", taskKey(task))
				fmt.Fprintf(out, "  Content path: %s\n", task.ContentPath)
				fmt.Fprintf(out, "  Status:       %s\n", task.Status)
				fmt.Fprintf(out, "  Created:      %s\n", formatTime(task.CreatedAt))
				fmt.Fprintf(out, "  Updated:      %s\n", formatTime(task.UpdatedAt))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

type taskJSON struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Tags        store.Tags `json:"tags"`
	Key         string     `json:"key"`
	ContentPath string     `json:"content_path"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func taskView(task *store.Task) taskJSON {
	return taskJSON{
		ID:          task.ID,
		Name:        task.Name,
		Category:    task.Category,
		Tags:        task.Tags,
		Key:         taskKey(task),
		ContentPath: task.ContentPath,
		Status:      task.Status.String(),
		CreatedAt:   task.CreatedAt.UTC(),
		UpdatedAt:   task.UpdatedAt.UTC(),
	}
}

func newQueueCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending or stalled task",
		Long: `Cancel a pending task, or one left in doing by a failed run.

A cancelled task is never picked up again. To retry the content, enqueue it
anew after clearing the archive lock.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				if err := st.Cancel(cmd.Context(), id); err != nil {
					var transition *store.TransitionError
					if errors.As(err, &transition) && errors.Is(err, store.ErrInvalidTransition) {
						return fmt.Errorf("task %d is %s and cannot be cancelled", id, transition.From)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled task %d\n", id)
				return nil
			})
		},
	}
}

func parseTaskID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", value)
	}
	return id, nil
}
