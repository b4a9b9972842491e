package testsupport

import (
	"context"
	"testing"

	"shelver/internal/config"
	"shelver/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...store.Option) *store.Store {
	t.Helper()

	st, err := store.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustEnqueue enqueues a task for content/season and returns its id.
func MustEnqueue(t testing.TB, st *store.Store, name, category string, contentID int64, season int, contentPath string) int64 {
	t.Helper()

	id, err := st.Enqueue(context.Background(), store.NewTask{
		Name:     name,
		Category: category,
		Tags: store.Tags{
			Season:  season,
			Content: store.ContentRef{ID: contentID, Name: name},
		},
		ContentPath: contentPath,
	})
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return id
}
