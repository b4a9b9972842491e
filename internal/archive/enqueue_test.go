package archive_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/archive"
	"shelver/internal/relocate"
	"shelver/internal/services"
	"shelver/internal/store"
	"shelver/internal/testsupport"
)

func TestEnqueueResolvesRelativeContentPath(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	t.Chdir(dir)

	tags := store.Tags{Season: 1, Content: store.ContentRef{ID: 120089, Name: "SPY×FAMILY"}}
	id, err := h.archiver.Enqueue(context.Background(), "SPY×FAMILY - 01", "anime", tags, "downloads/ep01.mkv")
	expectNoError(t, err)

	task := h.task(t, id)
	wd, err := os.Getwd()
	expectNoError(t, err)
	if want := filepath.Join(wd, "downloads", "ep01.mkv"); task.ContentPath != want {
		t.Fatalf("expected absolute content path %s, got %s", want, task.ContentPath)
	}
	if task.Status != store.StatusPending || task.Tags != tags {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestEnqueueRejectsInvalidTags(t *testing.T) {
	h := newHarness(t)
	_, err := h.archiver.Enqueue(context.Background(), "bad", "anime", store.Tags{Season: 0, Content: store.ContentRef{ID: 1}}, "/tmp/x")
	expectErrorIs(t, err, store.ErrInvalidTask, services.ErrValidation)
}

func TestEnqueueThenRunOnce(t *testing.T) {
	h := newHarness(t, withTitle("content-120089-s1", `(?i)spy\s*[x×]\s*family`))
	h.insertCfg(t, 120089, 1)
	source := testsupport.WriteTree(t, h.inbox, "SPY×FAMILY - 01.mkv", "other.mkv")

	tags := store.Tags{Season: 1, Content: store.ContentRef{ID: 120089, Name: "SPY×FAMILY"}}
	_, err := h.archiver.Enqueue(context.Background(), "SPY×FAMILY", "anime", tags, source)
	expectNoError(t, err)

	outcome, err := h.archiver.RunOnce(context.Background())
	expectNoError(t, err)
	if outcome.Kind != archive.OutcomeCompleted {
		t.Fatalf("expected completed, got %s", outcome.Kind)
	}
	if got := testsupport.ListDir(t, outcome.Destination); len(got) != 1 || got[0] != "SPY×FAMILY - 01.mkv" {
		t.Fatalf("unexpected destination entries %v", got)
	}
	if len(outcome.Result.Skipped) != 1 {
		t.Fatalf("expected one skipped file, got %+v", outcome.Result)
	}
	if key := relocate.Key(tags.Content.ID, tags.Season); key != "content-120089-s1" {
		t.Fatalf("unexpected key %s", key)
	}
}

func TestNewValidatesArguments(t *testing.T) {
	h := newHarness(t)
	opts := archive.OptionsFromConfig(h.cfg)
	if _, err := archive.New(nil, h.registry, opts, archive.Dependencies{}); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := archive.New(h.store, nil, opts, archive.Dependencies{}); err == nil {
		t.Fatal("expected error without registry")
	}
	opts.LockTTL = 0
	if _, err := archive.New(h.store, h.registry, opts, archive.Dependencies{}); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
