package archive

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/services"
	"shelver/internal/store"
)

// Enqueue records a finished download as a pending task. Relative content
// paths are resolved against the working directory.
func (a *Archiver) Enqueue(ctx context.Context, name, category string, tags store.Tags, contentPath string) (int64, error) {
	ctx = services.WithStage(ctx, StageEnqueue)

	contentPath = strings.TrimSpace(contentPath)
	if contentPath != "" && !filepath.IsAbs(contentPath) {
		abs, err := filepath.Abs(contentPath)
		if err != nil {
			return 0, services.Wrap(services.ErrValidation, StageEnqueue, "resolve content path", contentPath, err)
		}
		contentPath = abs
	}

	id, err := a.store.Enqueue(ctx, store.NewTask{
		Name:        strings.TrimSpace(name),
		Category:    strings.TrimSpace(category),
		Tags:        tags,
		ContentPath: contentPath,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidTask) {
			return 0, services.Wrap(services.ErrValidation, StageEnqueue, "enqueue task", "", err)
		}
		return 0, err
	}

	logger := a.stageLogger(services.WithTaskID(ctx, id))
	logger.Info("task enqueued",
		logging.String(logging.FieldEventType, "task_enqueued"),
		logging.String("name", name),
		logging.String("category", category),
		logging.Int64("content_id", tags.Content.ID),
		logging.Int("season", tags.Season),
		logging.String("content_path", contentPath),
	)
	a.publish(ctx, logger, notifications.EventTaskEnqueued, notifications.Payload{"name": name})
	return id, nil
}
