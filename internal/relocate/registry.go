package relocate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownKey is matched by *UnknownKeyError.
var ErrUnknownKey = errors.New("unknown dispatch key")

// ErrRegistryFrozen rejects registrations after startup.
var ErrRegistryFrozen = errors.New("registry frozen")

// Handler relocates the content at source into the destination directory.
type Handler func(ctx context.Context, source, destination string) (Result, error)

// UnknownKeyError reports a dispatch key with no handler and no default,
// listing every registered key for diagnostics.
type UnknownKeyError struct {
	Key   string
	Known []string
}

func (e *UnknownKeyError) Error() string {
	known := "none"
	if len(e.Known) > 0 {
		known = strings.Join(e.Known, ", ")
	}
	return fmt.Sprintf("%s %q (known keys: %s)", ErrUnknownKey, e.Key, known)
}

func (e *UnknownKeyError) Is(target error) bool { return target == ErrUnknownKey }

// Key builds the dispatch key for a content identity.
func Key(contentID int64, season int) string {
	return fmt.Sprintf("content-%d-s%d", contentID, season)
}

// NormalizeKey case-folds and trims a dispatch key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Registry maps normalized dispatch keys to handlers. It is populated at
// startup, then frozen and only read.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	fallback Handler
	frozen   bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds key to handler. Keys are case-folded; registering the same
// key twice is an error.
func (r *Registry) Register(key string, handler Handler) error {
	normalized := NormalizeKey(key)
	if normalized == "" {
		return errors.New("register: empty key")
	}
	if handler == nil {
		return fmt.Errorf("register %q: nil handler", normalized)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register %q: %w", normalized, ErrRegistryFrozen)
	}
	if _, exists := r.handlers[normalized]; exists {
		return fmt.Errorf("register %q: key already registered", normalized)
	}
	r.handlers[normalized] = handler
	return nil
}

// SetDefault installs the handler used when no key matches.
func (r *Registry) SetDefault(handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("set default: %w", ErrRegistryFrozen)
	}
	r.fallback = handler
	return nil
}

// Freeze rejects further changes.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Resolve returns the handler for key, case-insensitively. Without a match and
// without a default it returns *UnknownKeyError.
func (r *Registry) Resolve(key string) (Handler, error) {
	normalized := NormalizeKey(key)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if handler, ok := r.handlers[normalized]; ok {
		return handler, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, &UnknownKeyError{Key: key, Known: r.keysLocked()}
}

// Keys returns every registered key in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keysLocked()
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

func (r *Registry) keysLocked() []string {
	keys := make([]string, 0, len(r.handlers))
	for key := range r.handlers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
