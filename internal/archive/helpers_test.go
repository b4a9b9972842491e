package archive_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shelver/internal/archive"
	"shelver/internal/config"
	"shelver/internal/notifications"
	"shelver/internal/relocate"
	"shelver/internal/scraper"
	"shelver/internal/store"
	"shelver/internal/testsupport"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type published struct {
	event   notifications.Event
	payload notifications.Payload
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{event: event, payload: payload})
	return nil
}

func (r *recordingNotifier) has(event notifications.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.event == event {
			return true
		}
	}
	return false
}

type stubNamer struct {
	names map[int64]string
	err   error
	calls int
}

func (s *stubNamer) ShowName(_ context.Context, id int64) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	name, ok := s.names[id]
	if !ok {
		return "", fmt.Errorf("show %d not found", id)
	}
	return name, nil
}

type harness struct {
	cfg      *config.Config
	store    *store.Store
	clock    *testsupport.Clock
	registry *relocate.Registry
	notifier *recordingNotifier
	namer    *stubNamer
	archiver *archive.Archiver
	library  string
	inbox    string
}

type harnessOption func(*harnessSetup)

type harnessSetup struct {
	configOpts []testsupport.ConfigOption
	titles     map[string]string
	overwrite  bool
	namerErr   error
}

func withConfig(opts ...testsupport.ConfigOption) harnessOption {
	return func(s *harnessSetup) { s.configOpts = append(s.configOpts, opts...) }
}

func withTitle(key, pattern string) harnessOption {
	return func(s *harnessSetup) { s.titles[key] = pattern }
}

func withNamerError(err error) harnessOption {
	return func(s *harnessSetup) { s.namerErr = err }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	setup := &harnessSetup{titles: map[string]string{}}
	for _, opt := range opts {
		opt(setup)
	}

	cfg := testsupport.NewConfig(t, setup.configOpts...)
	clock := testsupport.NewClock(epoch)
	st := testsupport.MustOpenStore(t, cfg, store.WithClock(clock.Now))

	reg := relocate.NewRegistry()
	for key, pattern := range setup.titles {
		sel := relocate.MustSelector(pattern, relocate.MatchName)
		if err := reg.Register(key, relocate.NewHandler(sel, relocate.Options{Overwrite: setup.overwrite})); err != nil {
			t.Fatalf("register %s: %v", key, err)
		}
	}
	reg.Freeze()

	notifier := &recordingNotifier{}
	namer := &stubNamer{names: map[int64]string{86031: "石纪元", 120089: "间谍过家家"}, err: setup.namerErr}
	a, err := archive.New(st, reg, archive.OptionsFromConfig(cfg), archive.Dependencies{
		Namer:    namer,
		Scraper:  scraper.NewRunner(cfg),
		Notifier: notifier,
	})
	if err != nil {
		t.Fatalf("archive.New: %v", err)
	}

	base := testsupport.BaseDir(cfg)
	return &harness{
		cfg:      cfg,
		store:    st,
		clock:    clock,
		registry: reg,
		notifier: notifier,
		namer:    namer,
		archiver: a,
		library:  filepath.Join(base, "library"),
		inbox:    filepath.Join(base, "inbox"),
	}
}

// insertCfg maps the "anime" category to the harness library root.
func (h *harness) insertCfg(t *testing.T, contentID int64, season int) {
	t.Helper()
	doc, err := json.Marshal(map[string]any{
		"category_mapping": map[string]string{"anime": h.library},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.store.InsertCfg(context.Background(), season, contentID, doc); err != nil {
		t.Fatalf("InsertCfg: %v", err)
	}
}

func (h *harness) task(t *testing.T, id int64) *store.Task {
	t.Helper()
	task, err := h.store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(%d): %v", id, err)
	}
	return task
}

func (h *harness) heldLocks(t *testing.T) []*store.Lock {
	t.Helper()
	locks, err := h.store.HeldLocks(context.Background())
	if err != nil {
		t.Fatalf("HeldLocks: %v", err)
	}
	return locks
}

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func expectErrorIs(t *testing.T, err error, targets ...error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error matching %v, got nil", targets)
	}
	for _, target := range targets {
		if !errors.Is(err, target) {
			t.Fatalf("expected error matching %v, got %v", target, err)
		}
	}
}
