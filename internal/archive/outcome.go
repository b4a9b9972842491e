package archive

import (
	"shelver/internal/relocate"
	"shelver/internal/store"
)

// OutcomeKind classifies a run that did not fail.
type OutcomeKind int

const (
	// OutcomeCompleted means a unit of work finished and the lock was released.
	OutcomeCompleted OutcomeKind = iota
	// OutcomeSkippedLocked means another invocation holds a live lock.
	OutcomeSkippedLocked
	// OutcomeIdle means the queue had no pending task.
	OutcomeIdle
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeSkippedLocked:
		return "skipped_locked"
	case OutcomeIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Outcome reports what one invocation did.
type Outcome struct {
	Kind  OutcomeKind
	RunID string

	// Blocker is the live lock that caused OutcomeSkippedLocked.
	Blocker *store.LockError

	// Set for completed archive runs.
	Task        *store.Task
	Destination string
	Result      relocate.Result

	// Set for completed cfg creation.
	CfgID int64
}
