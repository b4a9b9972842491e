package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"shelver/internal/store"
)

func newLocksCommand(ctx *commandContext) *cobra.Command {
	locksCmd := &cobra.Command{
		Use:   "locks",
		Short: "Inspect and release cooperative locks",
	}

	locksCmd.AddCommand(newLocksListCommand(ctx))
	locksCmd.AddCommand(newLocksHistoryCommand(ctx))
	locksCmd.AddCommand(newLocksReleaseCommand(ctx))

	return locksCmd
}

func newLocksListCommand(ctx *commandContext) *cobra.Command {
	var stuckOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List held locks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				var (
					locks []*store.Lock
					err   error
				)
				if stuckOnly {
					locks, err = st.StuckLocks(cmd.Context())
				} else {
					locks, err = st.HeldLocks(cmd.Context())
				}
				if err != nil {
					return err
				}
				if len(locks) == 0 {
					if stuckOnly {
						fmt.Fprintln(cmd.OutOrStdout(), "No stuck locks")
					} else {
						fmt.Fprintln(cmd.OutOrStdout(), "No locks held")
					}
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderLocks(locks, time.Now()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&stuckOnly, "stuck", false, "Only list held locks past their TTL")
	return cmd
}

func newLocksHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <name>",
		Short: "Show recent acquisitions of a lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				locks, err := st.LockHistory(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				if len(locks) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No acquisitions of %q\n", args[0])
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderLocks(locks, time.Now()))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of rows to show")
	return cmd
}

func renderLocks(locks []*store.Lock, now time.Time) string {
	rows := make([][]string, 0, len(locks))
	for _, lock := range locks {
		state := "released"
		if lock.Locked {
			state = "held"
			if lock.Expired(now) {
				state = "stuck"
			}
		}
		rows = append(rows, []string{
			strconv.FormatInt(lock.ID, 10),
			lock.Name,
			lock.Token,
			state,
			formatTime(lock.LockedAt),
			formatTime(lock.ExpiresAt),
		})
	}
	return renderTable(
		[]column{right("ID"), left("Name"), left("Token"), left("State"), left("Locked"), left("Expires")},
		rows,
	)
}

func newLocksReleaseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "release <name> <token>",
		Short: "Release a lock by name and token",
		Long: `Release a lock by name and token.

Use this to clear a lock left held by a failed run once the failure has been
dealt with. The token is shown by "shelver locks list --stuck".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, token := args[0], args[1]
			return ctx.withStore(func(st *store.Store) error {
				if err := st.ReleaseLock(cmd.Context(), name, token); err != nil {
					if errors.Is(err, store.ErrLockNotOwned) {
						return fmt.Errorf("no held lock %q with token %s", name, token)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Released lock %q\n", name)
				return nil
			})
		},
	}
}
