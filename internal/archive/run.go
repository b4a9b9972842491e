package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"shelver/internal/fileutil"
	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/relocate"
	"shelver/internal/services"
	"shelver/internal/store"
)

// RunOnce performs one unit of work: claim the archive lock, take the oldest
// pending task, link its files into the library, mark it done and release the
// lock.
//
// A live lock held elsewhere yields OutcomeSkippedLocked and an empty queue
// yields OutcomeIdle, both with a nil error. Every other failure aborts the run
// and leaves the lock held and the task in Doing for the operator to inspect.
func (a *Archiver) RunOnce(ctx context.Context) (Outcome, error) {
	outcome := Outcome{RunID: uuid.NewString()}
	ctx = services.WithRunID(ctx, outcome.RunID)

	token, blocker, err := a.acquire(ctx, a.opts.LockName, a.opts.LockTTL)
	if err != nil {
		return outcome, err
	}
	if blocker != nil {
		outcome.Kind = OutcomeSkippedLocked
		outcome.Blocker = blocker
		return outcome, nil
	}

	selectCtx := services.WithStage(ctx, StageSelectTask)
	task, err := a.store.PopOldestPending(selectCtx)
	if errors.Is(err, store.ErrQueueEmpty) {
		a.stageLogger(selectCtx).Info("queue empty; nothing to archive",
			logging.String(logging.FieldEventType, "queue_empty"),
		)
		if err := a.release(ctx, a.opts.LockName, token); err != nil {
			return outcome, err
		}
		outcome.Kind = OutcomeIdle
		return outcome, nil
	}
	if err != nil {
		return outcome, a.fatal(selectCtx, nil, "pop oldest pending", "check that the database is reachable", err)
	}

	outcome.Task = task
	ctx = services.WithTaskID(ctx, task.ID)
	key := relocate.Key(task.Tags.Content.ID, task.Tags.Season)

	doingCtx := services.WithStage(ctx, StageMarkDoing)
	if err := a.store.Transition(doingCtx, task.ID, store.StatusDoing); err != nil {
		return outcome, a.fatal(doingCtx, transitionMarker(err), "mark doing", "inspect the task with: shelver queue show "+fmt.Sprint(task.ID), err)
	}
	task.Status = store.StatusDoing
	a.stageLogger(doingCtx).Info("task claimed",
		logging.String(logging.FieldEventType, "task_claimed"),
		logging.String("name", task.Name),
		logging.String("category", task.Category),
		logging.String(logging.FieldDispatchKey, key),
		logging.String("content_path", task.ContentPath),
	)

	root, handler, err := a.resolve(services.WithStage(ctx, StageResolvePolicy), task, key)
	if err != nil {
		return outcome, err
	}

	relocateCtx := services.WithStage(ctx, StageRelocate)
	dest, result, err := a.relocate(relocateCtx, task, root, handler)
	if err != nil {
		return outcome, err
	}
	outcome.Destination = dest.SeasonDir
	outcome.Result = result

	a.scrape(services.WithStage(ctx, StageScrape))

	doneCtx := services.WithStage(ctx, StageMarkDone)
	if err := a.store.Transition(doneCtx, task.ID, store.StatusDone); err != nil {
		return outcome, a.fatal(doneCtx, transitionMarker(err), "mark done", "inspect the task with: shelver queue show "+fmt.Sprint(task.ID), err)
	}
	task.Status = store.StatusDone

	if err := a.release(ctx, a.opts.LockName, token); err != nil {
		return outcome, err
	}

	logger := a.stageLogger(doneCtx)
	logger.Info("task archived",
		logging.String(logging.FieldEventType, "task_archived"),
		logging.String("name", task.Name),
		logging.String("destination", dest.SeasonDir),
		logging.Int("linked", len(result.Linked)),
		logging.Int("already_linked", len(result.AlreadyLinked)),
		logging.Int("replaced", len(result.Replaced)),
		logging.Int("skipped", len(result.Skipped)),
	)
	a.publish(doneCtx, logger, notifications.EventTaskCompleted, notifications.Payload{
		"name":        task.Name,
		"destination": dest.SeasonDir,
		"linked":      result.Total(),
	})

	outcome.Kind = OutcomeCompleted
	return outcome, nil
}

// resolve finds the destination root and the relocation handler for task.
func (a *Archiver) resolve(ctx context.Context, task *store.Task, key string) (string, relocate.Handler, error) {
	cfg, err := a.store.GetCfg(ctx, task.Tags.Content.ID, task.Tags.Season)
	if err != nil {
		if errors.Is(err, store.ErrCfgNotFound) {
			hint := fmt.Sprintf("create one with: shelver cfg create --content-id %d --season %d", task.Tags.Content.ID, task.Tags.Season)
			return "", nil, a.fatal(ctx, services.ErrConfiguration, "load cfg", hint, err)
		}
		return "", nil, a.fatal(ctx, nil, "load cfg", "check that the database is reachable", err)
	}
	policy, err := cfg.Policy()
	if err != nil {
		return "", nil, a.fatal(ctx, services.ErrConfiguration, "parse cfg", fmt.Sprintf("fix cfg #%d or insert a corrected one", cfg.ID), err)
	}
	root, err := policy.Root(task.Category)
	if err != nil {
		return "", nil, a.fatal(ctx, services.ErrConfiguration, "map category", "add the category to the cfg's category_mapping", err)
	}

	handler, err := a.registry.Resolve(key)
	if err != nil {
		return "", nil, a.fatal(ctx, services.ErrInvariant, "resolve handler", "add a [[title]] entry for "+key+" to the title table", err,
			logging.String(logging.FieldDispatchKey, key),
		)
	}
	return root, handler, nil
}

// relocate prepares the library directories and links the task's content.
func (a *Archiver) relocate(ctx context.Context, task *store.Task, root string, handler relocate.Handler) (library.Destination, relocate.Result, error) {
	var result relocate.Result

	if _, err := os.Stat(task.ContentPath); err != nil {
		marker := services.ErrNotFound
		if !errors.Is(err, os.ErrNotExist) {
			marker = nil
		}
		return library.Destination{}, result, a.fatal(ctx, marker, "check content path", "the download was moved or deleted; cancel the task with: shelver queue cancel "+fmt.Sprint(task.ID), err)
	}

	name, err := a.showName(ctx, task)
	if err != nil {
		return library.Destination{}, result, a.fatal(ctx, services.ErrValidation, "resolve show name", "configure tmdb credentials or set tags.content.name", err)
	}
	dest, err := library.Plan(root, name, a.opts.SeasonDirFormat, task.Tags.Season)
	if err != nil {
		return dest, result, a.fatal(ctx, services.ErrConfiguration, "plan destination", "check the category root and show name", err)
	}
	if err := dest.Prepare(); err != nil {
		marker := services.ErrValidation
		if !errors.Is(err, fileutil.ErrNotDirectory) {
			marker = nil
		}
		return dest, result, a.fatal(ctx, marker, "prepare destination", "remove whatever occupies "+dest.SeasonDir, err)
	}

	logger := a.stageLogger(ctx)
	if a.opts.WriteShowNFO {
		wrote, err := library.EnsureShowNFO(dest.ShowDir, task.Tags.Content.ID)
		if err != nil {
			return dest, result, a.fatal(ctx, nil, "write show nfo", "check permissions on "+dest.ShowDir, err)
		}
		if wrote {
			logger.Info("show nfo written",
				logging.String(logging.FieldEventType, "show_nfo_written"),
				logging.String("show_dir", dest.ShowDir),
			)
		}
	}

	result, err = handler(ctx, task.ContentPath, dest.SeasonDir)
	if err != nil {
		var marker error
		hint := "check permissions and that source and library share a filesystem"
		switch {
		case errors.Is(err, relocate.ErrSourceMissing):
			marker = services.ErrNotFound
		case errors.Is(err, fileutil.ErrDestinationExists):
			marker = services.ErrValidation
			hint = "remove the conflicting file or enable library.overwrite_existing"
		}
		return dest, result, a.fatal(ctx, marker, "link files", hint, err)
	}
	if result.Total() == 0 {
		logging.WarnWithContext(logger, "no files matched the title selector", "relocate_empty",
			logging.String("content_path", task.ContentPath),
			logging.Int("skipped", len(result.Skipped)),
			logging.String(logging.FieldErrorHint, "check the title pattern against the download's file names"),
			logging.String(logging.FieldImpact, "task completes without adding files to the library"),
		)
	}
	return dest, result, nil
}

func (a *Archiver) showName(ctx context.Context, task *store.Task) (string, error) {
	fallback := strings.TrimSpace(task.Tags.Content.Name)
	if a.namer != nil {
		name, err := a.namer.ShowName(ctx, task.Tags.Content.ID)
		if err == nil && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name), nil
		}
		if err != nil {
			logging.WarnWithContext(a.stageLogger(ctx), "show name lookup failed", "show_name_fallback",
				logging.Int64("content_id", task.Tags.Content.ID),
				logging.String("fallback", fallback),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check tmdb credentials and connectivity"),
				logging.String(logging.FieldImpact, "show directory named from tags.content.name"),
			)
		}
	}
	if fallback == "" {
		return "", fmt.Errorf("content %d: no show name available", task.Tags.Content.ID)
	}
	return fallback, nil
}

func (a *Archiver) scrape(ctx context.Context) {
	if !a.scraper.Enabled() {
		return
	}
	logger := a.stageLogger(ctx)
	result, err := a.scraper.Run(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "scraper failed", "scrape_failed",
			logging.Int("exit_code", result.ExitCode),
			logging.Duration("duration", result.Duration),
			logging.String("output", result.Output),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the scraper command and its output"),
			logging.String(logging.FieldImpact, "files are linked but not renamed or scraped"),
		)
		return
	}
	logger.Info("scraper finished",
		logging.String(logging.FieldEventType, "scrape_complete"),
		logging.Duration("duration", result.Duration),
	)
}

// acquire claims a lock. A live holder is returned as blocker with a nil
// error. A stuck holder is fatal.
func (a *Archiver) acquire(ctx context.Context, name string, ttl time.Duration) (string, *store.LockError, error) {
	ctx = services.WithStage(ctx, StageAcquireLock)
	logger := a.stageLogger(ctx).With(logging.String(logging.FieldLockName, name))

	token, err := a.store.AcquireLock(ctx, name, ttl)
	if err == nil {
		logger.Debug("lock acquired", logging.String(logging.FieldLockToken, token))
		return token, nil, nil
	}

	var lockErr *store.LockError
	if !errors.As(err, &lockErr) {
		return "", nil, a.fatal(ctx, nil, "acquire lock "+name, "check that the database is reachable", err)
	}
	if !lockErr.Stuck() {
		logger.Info("lock held by another run; skipping",
			logging.String(logging.FieldEventType, "lock_skip"),
			logging.String(logging.FieldLockToken, lockErr.Token),
			logging.Time("expires_at", lockErr.ExpiresAt),
		)
		return "", lockErr, nil
	}

	wrapped := services.Wrap(services.ErrInvariant, StageAcquireLock, "acquire lock "+name, "", err)
	logging.ErrorWithContext(logger, "run aborted: stuck lock", "lock_stuck",
		logging.String(logging.FieldLockToken, lockErr.Token),
		logging.Time("expires_at", lockErr.ExpiresAt),
		logging.String(logging.FieldErrorHint, fmt.Sprintf("release it with: shelver locks release %s %s", name, lockErr.Token)),
		logging.Error(wrapped),
	)
	a.publish(ctx, logger, notifications.EventLockStuck, notifications.Payload{
		"lock":       name,
		"token":      lockErr.Token,
		"expires_at": lockErr.ExpiresAt,
	})
	return "", nil, wrapped
}

func (a *Archiver) release(ctx context.Context, name, token string) error {
	ctx = services.WithStage(ctx, StageReleaseLock)
	if err := a.store.ReleaseLock(ctx, name, token); err != nil {
		var marker error
		if errors.Is(err, store.ErrLockNotOwned) {
			marker = services.ErrInvariant
		}
		return a.fatal(ctx, marker, "release lock "+name, "inspect locks with: shelver locks list", err)
	}
	a.stageLogger(ctx).Debug("lock released",
		logging.String(logging.FieldLockName, name),
		logging.String(logging.FieldLockToken, token),
	)
	return nil
}

// fatal logs and reports an aborting failure. A nil marker leaves err
// unclassified so store failures reach the caller as they are.
func (a *Archiver) fatal(ctx context.Context, marker error, operation, hint string, err error, attrs ...logging.Attr) error {
	stage, _ := services.StageFromContext(ctx)
	var wrapped error
	if marker != nil {
		wrapped = services.Wrap(marker, stage, operation, "", err)
	} else {
		wrapped = fmt.Errorf("%s: %s: %w", stage, operation, err)
	}

	logger := a.stageLogger(ctx)
	attrs = append(attrs,
		logging.String("failure_kind", services.FailureKind(wrapped)),
		logging.String(logging.FieldErrorHint, hint),
		logging.Error(wrapped),
	)
	logging.ErrorWithContext(logger, "run aborted", "run_fatal", attrs...)

	payload := notifications.Payload{"stage": stage, "error": wrapped}
	if id, ok := services.TaskIDFromContext(ctx); ok {
		payload["task_id"] = id
	}
	a.publish(ctx, logger, notifications.EventFatal, payload)
	return wrapped
}

func (a *Archiver) stageLogger(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, a.logger)
}

func transitionMarker(err error) error {
	var transitionErr *store.TransitionError
	if errors.As(err, &transitionErr) {
		return services.ErrInvariant
	}
	return nil
}
