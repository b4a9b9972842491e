package store

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrLockHeld marks an acquisition that found a live holder. Callers skip.
	ErrLockHeld = errors.New("lock held")
	// ErrLockStuck marks an acquisition that found a held lock past its TTL.
	// It is never reclaimed automatically.
	ErrLockStuck = errors.New("lock stuck")
	// ErrLockNotOwned marks a release whose name and token matched no held row.
	ErrLockNotOwned = errors.New("lock not owned")
	// ErrInvalidLock rejects malformed acquisition requests.
	ErrInvalidLock = errors.New("invalid lock request")

	ErrQueueEmpty        = errors.New("no pending task")
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTask       = errors.New("invalid task")
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrCfgNotFound       = errors.New("cfg not found")
	ErrInvalidPolicy     = errors.New("invalid policy document")
	ErrCategoryNotMapped = errors.New("category not mapped")
)

// LockError describes the row that blocked an acquisition. It matches
// ErrLockHeld or ErrLockStuck through errors.Is.
type LockError struct {
	Name      string
	Token     string
	ExpiresAt time.Time
	Err       error
}

func (e *LockError) Error() string {
	state := "held"
	if e.Stuck() {
		state = "stuck (expired without release)"
	}
	return fmt.Sprintf("lock %q %s: token %s, expires_at %s",
		e.Name, state, e.Token, e.ExpiresAt.UTC().Format(time.RFC3339))
}

func (e *LockError) Unwrap() error { return e.Err }

// Stuck reports whether the blocking row outlived its TTL.
func (e *LockError) Stuck() bool { return errors.Is(e.Err, ErrLockStuck) }

// TransitionError reports a status write that affected no rows.
type TransitionError struct {
	TaskID int64
	From   Status
	To     Status
	Err    error
}

func (e *TransitionError) Error() string {
	if errors.Is(e.Err, ErrTaskNotFound) {
		return fmt.Sprintf("transition task %d to %s: %v", e.TaskID, e.To, e.Err)
	}
	return fmt.Sprintf("transition task %d from %s to %s: %v", e.TaskID, e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }
