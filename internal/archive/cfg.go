package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/services"
	"shelver/internal/store"
)

// CreateCfg stores a policy document for a content identity under the cfg
// lock. A nil document loads the configured default document. The lock
// follows the same rules as RunOnce: a live holder skips, a stuck one is fatal.
func (a *Archiver) CreateCfg(ctx context.Context, season int, contentID int64, document json.RawMessage) (Outcome, error) {
	outcome := Outcome{RunID: uuid.NewString()}
	ctx = services.WithStage(services.WithRunID(ctx, outcome.RunID), StageCreateCfg)

	if season <= 0 || contentID <= 0 {
		return outcome, services.Wrap(services.ErrValidation, StageCreateCfg, "validate", fmt.Sprintf("content id %d season %d must both be positive", contentID, season), nil)
	}
	if document == nil {
		loaded, err := a.loadDefaultDocument()
		if err != nil {
			return outcome, services.Wrap(services.ErrConfiguration, StageCreateCfg, "load default document", a.opts.DefaultDocumentPath, err)
		}
		document = loaded
	}
	// Validate before taking the lock.
	if _, err := store.ParsePolicy(document); err != nil {
		return outcome, services.Wrap(services.ErrValidation, StageCreateCfg, "validate document", "", err)
	}

	token, blocker, err := a.acquire(ctx, a.opts.CfgLockName, a.opts.CfgLockTTL)
	if err != nil {
		return outcome, err
	}
	if blocker != nil {
		outcome.Kind = OutcomeSkippedLocked
		outcome.Blocker = blocker
		return outcome, nil
	}

	id, err := a.store.InsertCfg(ctx, season, contentID, document)
	if err != nil {
		return outcome, a.fatal(ctx, nil, "insert cfg", "check that the database is reachable", err)
	}
	if err := a.release(ctx, a.opts.CfgLockName, token); err != nil {
		return outcome, err
	}

	logger := a.stageLogger(ctx)
	logger.Info("cfg created",
		logging.String(logging.FieldEventType, "cfg_created"),
		logging.Int64("cfg_id", id),
		logging.Int64("content_id", contentID),
		logging.Int("season", season),
	)
	a.publish(ctx, logger, notifications.EventCfgCreated, notifications.Payload{
		"content_id": contentID,
		"season":     season,
	})

	outcome.Kind = OutcomeCompleted
	outcome.CfgID = id
	return outcome, nil
}

func (a *Archiver) loadDefaultDocument() (json.RawMessage, error) {
	path := strings.TrimSpace(a.opts.DefaultDocumentPath)
	if path == "" {
		return nil, fmt.Errorf("policy.default_document is not set")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
