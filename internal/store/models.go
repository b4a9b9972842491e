package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status represents the lifecycle of a task. Values are persisted as integers.
type Status int

const (
	StatusPending Status = iota
	StatusDoing
	StatusDone
	StatusCancelled
)

var allStatuses = []Status{StatusPending, StatusDoing, StatusDone, StatusCancelled}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDoing:
		return "doing"
	case StatusDone:
		return "done"
	case StatusCancelled:
		return "cancelled"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusCancelled
}

// ParseStatus converts a status name or its integer form.
func ParseStatus(value string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, status := range allStatuses {
		if status.String() == normalized {
			return status, true
		}
	}
	if n, err := strconv.Atoi(normalized); err == nil && Status(n).Valid() {
		return Status(n), true
	}
	return 0, false
}

// allowedFrom lists the statuses a task may move out of to reach a target.
// Pending is never a target; tasks only move forward.
var allowedFrom = map[Status][]Status{
	StatusDoing:     {StatusPending},
	StatusDone:      {StatusDoing},
	StatusCancelled: {StatusPending, StatusDoing},
}

// ContentRef identifies a piece of catalogued content.
type ContentRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Tags carries the immutable identity of a task.
type Tags struct {
	Season  int        `json:"season"`
	Content ContentRef `json:"content"`
}

// Validate ensures the identity is usable as a dispatch key.
func (t Tags) Validate() error {
	if t.Content.ID <= 0 {
		return fmt.Errorf("tags.content.id must be positive, got %d", t.Content.ID)
	}
	if t.Season <= 0 {
		return fmt.Errorf("tags.season must be positive, got %d", t.Season)
	}
	return nil
}

// Task is a queued relocation job.
type Task struct {
	ID          int64
	Name        string
	Category    string
	Tags        Tags
	ContentPath string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTask describes a task to enqueue.
type NewTask struct {
	Name        string
	Category    string
	Tags        Tags
	ContentPath string
}

// Lock is one acquisition of a named cooperative lock.
type Lock struct {
	ID        int64
	Name      string
	Token     string
	Locked    bool
	LockedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the lock's TTL has elapsed at now.
func (l Lock) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// Cfg is a policy document keyed by content and season.
type Cfg struct {
	ID        int64
	Season    int
	ContentID int64
	Document  json.RawMessage
}

// Policy decodes the document into the fields the archive run consumes.
func (c *Cfg) Policy() (Policy, error) {
	if c == nil {
		return Policy{}, fmt.Errorf("%w: nil cfg", ErrInvalidPolicy)
	}
	return ParsePolicy(c.Document)
}
