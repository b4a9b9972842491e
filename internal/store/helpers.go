package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const taskColumns = "id, name, category, tags, content_path, status, created_at, updated_at"

const lockColumns = "id, name, token, is_locked, locked_at, expires_at"

const cfgColumns = "id, season, content_id, document"

type rowScanner interface{ Scan(dest ...any) error }

func scanTask(scanner rowScanner) (*Task, error) {
	var (
		task     Task
		category sql.NullString
		tagsRaw  string
		status   int
		created  int64
		updated  int64
	)
	if err := scanner.Scan(
		&task.ID,
		&task.Name,
		&category,
		&tagsRaw,
		&task.ContentPath,
		&status,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsRaw), &task.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for task %d: %w", task.ID, err)
	}
	task.Category = category.String
	task.Status = Status(status)
	task.CreatedAt = fromUnix(created)
	task.UpdatedAt = fromUnix(updated)
	return &task, nil
}

func scanLock(scanner rowScanner) (*Lock, error) {
	var (
		lock     Lock
		isLocked int
		lockedAt int64
		expires  int64
	)
	if err := scanner.Scan(&lock.ID, &lock.Name, &lock.Token, &isLocked, &lockedAt, &expires); err != nil {
		return nil, err
	}
	lock.Locked = isLocked != 0
	lock.LockedAt = fromUnix(lockedAt)
	lock.ExpiresAt = fromUnix(expires)
	return &lock, nil
}

func scanCfg(scanner rowScanner) (*Cfg, error) {
	var (
		cfg      Cfg
		document string
	)
	if err := scanner.Scan(&cfg.ID, &cfg.Season, &cfg.ContentID, &document); err != nil {
		return nil, err
	}
	cfg.Document = json.RawMessage(document)
	return &cfg, nil
}

func fromUnix(seconds int64) time.Time {
	return time.Unix(seconds, 0).UTC()
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = int(status)
	}
	return args
}
