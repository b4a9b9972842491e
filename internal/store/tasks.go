package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Enqueue inserts a pending task and returns its identifier.
func (s *Store) Enqueue(ctx context.Context, task NewTask) (int64, error) {
	task.Name = strings.TrimSpace(task.Name)
	task.Category = strings.TrimSpace(task.Category)
	task.ContentPath = strings.TrimSpace(task.ContentPath)
	if task.Name == "" {
		return 0, fmt.Errorf("%w: name is required", ErrInvalidTask)
	}
	if task.ContentPath == "" {
		return 0, fmt.Errorf("%w: content path is required", ErrInvalidTask)
	}
	if err := task.Tags.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}

	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return 0, fmt.Errorf("encode tags: %w", err)
	}

	now := s.nowUnix()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO task (name, category, tags, content_path, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.Name, task.Category, string(tags), task.ContentPath, int(StatusPending), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("task id: %w", err)
	}
	return id, nil
}

// PopOldestPending returns the pending task with the smallest created_at,
// breaking ties by id. It does not change the task's status. ErrQueueEmpty is
// returned when nothing is pending.
func (s *Store) PopOldestPending(ctx context.Context) (*Task, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM task
         WHERE status = ?
         ORDER BY created_at ASC, id ASC
         LIMIT 1`,
		int(StatusPending),
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("select oldest pending task: %w", err)
	}
	return task, nil
}

// GetByID fetches a task by identifier, returning ErrTaskNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Task, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM task WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrTaskNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return task, nil
}

// Transition moves a task forward to status. updated_at always increases, even
// for two writes within the same second. A write that affects no rows returns a
// *TransitionError matching ErrTaskNotFound or ErrInvalidTransition.
func (s *Store) Transition(ctx context.Context, id int64, status Status) error {
	from, ok := allowedFrom[status]
	if !ok {
		return &TransitionError{TaskID: id, To: status, Err: ErrInvalidTransition}
	}

	args := []any{int(status), s.nowUnix(), id}
	args = append(args, statusArgs(from)...)
	res, err := s.execWithRetry(ctx,
		`UPDATE task SET status = ?, updated_at = MAX(?, updated_at + 1)
         WHERE id = ? AND status IN (`+makePlaceholders(len(from))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("transition task %d to %s: %w", id, status, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition task %d: rows affected: %w", id, err)
	}
	if affected > 0 {
		return nil
	}

	var current int
	err = s.db.QueryRowContext(ensureContext(ctx), `SELECT status FROM task WHERE id = ?`, id).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &TransitionError{TaskID: id, To: status, Err: ErrTaskNotFound}
	case err != nil:
		return fmt.Errorf("transition task %d: read current status: %w", id, err)
	default:
		return &TransitionError{TaskID: id, From: Status(current), To: status, Err: ErrInvalidTransition}
	}
}

// Cancel marks a pending or in-flight task as cancelled.
func (s *Store) Cancel(ctx context.Context, id int64) error {
	return s.Transition(ctx, id, StatusCancelled)
}

// List returns tasks filtered by status in queue order. No statuses means all.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Task, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + taskColumns + ` FROM task`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		args = statusArgs(statuses)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Stats returns task counts keyed by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM task GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var (
			status int
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan task stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}
