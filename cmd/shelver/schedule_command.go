package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"shelver/internal/archive"
	"shelver/internal/logging"
	"shelver/internal/services"
	"shelver/internal/store"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var cronFlag string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Invoke the archive run on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			spec := strings.TrimSpace(cronFlag)
			if spec == "" {
				spec = cfg.Schedule.Cron
			}
			if spec == "" {
				return errors.New("schedule: no cron expression (set schedule.cron or pass --cron)")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withArchiver(func(arch *archive.Archiver, _ *store.Store) error {
				return runSchedule(signalCtx, spec, func(runCtx context.Context) {
					outcome, err := arch.RunOnce(runCtx)
					if err != nil {
						logging.ErrorWithContext(logger, "scheduled run failed", "schedule_run_failed",
							logging.String(logging.FieldErrorHint, "inspect the failure, then clear the lock with `shelver locks release`"),
							logging.String("failure_kind", services.FailureKind(err)),
							logging.Error(err),
						)
						return
					}
					logger.Debug("scheduled run finished",
						logging.String("outcome", outcome.Kind.String()),
						logging.String(logging.FieldRunID, outcome.RunID),
					)
				}, func(format string, a ...any) {
					fmt.Fprintf(cmd.OutOrStdout(), format, a...)
				})
			})
		},
	}

	cmd.Flags().StringVar(&cronFlag, "cron", "", "Standard five-field cron expression (defaults to schedule.cron)")
	return cmd
}

// runSchedule fires job on spec until ctx is done. Overlapping ticks are
// skipped; the archive lock would turn them away regardless.
func runSchedule(ctx context.Context, spec string, job func(context.Context), printf func(string, ...any)) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	runner := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	runner.Schedule(schedule, cron.FuncJob(func() { job(ctx) }))
	runner.Start()
	printf("Scheduling archive runs with %q\n", spec)

	<-ctx.Done()
	<-runner.Stop().Done()
	printf("Scheduler stopped\n")
	return nil
}
