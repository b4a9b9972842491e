package library_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelver/internal/fileutil"
	"shelver/internal/library"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"Dr.STONE":                 "Dr.STONE",
		"  Re:Zero  ":              "Re-Zero",
		"What? <Really>":           "What Really",
		"我怎么可能成为你的恋人，不行不行！": "我怎么可能成为你的恋人，不行不行！",
		"...":                      "",
	}
	for input, want := range tests {
		if got := library.SanitizeName(input); got != want {
			t.Fatalf("SanitizeName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSeasonDir(t *testing.T) {
	if got := library.SeasonDir("season %d", 4); got != "season 4" {
		t.Fatalf("unexpected season dir %q", got)
	}
	if got := library.SeasonDir("Season %02d", 1); got != "Season 01" {
		t.Fatalf("unexpected season dir %q", got)
	}
	if got := library.SeasonDir("", 2); got != "season 2" {
		t.Fatalf("unexpected default season dir %q", got)
	}
}

func TestPlanReusesCaseVariantShowDir(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "Dr.Stone"), 0o755); err != nil {
		t.Fatal(err)
	}

	dest, err := library.Plan(root, "Dr.STONE", "season %d", 4)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if dest.ShowDir != filepath.Join(root, "Dr.Stone") {
		t.Fatalf("expected existing show dir to be reused, got %s", dest.ShowDir)
	}
	if dest.SeasonDir != filepath.Join(root, "Dr.Stone", "season 4") {
		t.Fatalf("unexpected season dir %s", dest.SeasonDir)
	}
}

func TestPlanRejectsRelativeRoot(t *testing.T) {
	if _, err := library.Plan("library/tv", "Show", "season %d", 1); err == nil {
		t.Fatal("expected error for relative root")
	}
}

func TestPrepareRejectsFileAtSeasonPath(t *testing.T) {
	root := t.TempDir()
	dest, err := library.Plan(root, "Show", "season %d", 1)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if err := os.MkdirAll(dest.ShowDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest.SeasonDir, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := dest.Prepare(); !errors.Is(err, fileutil.ErrNotDirectory) {
		t.Fatalf("expected ErrNotDirectory, got %v", err)
	}
}

func TestEnsureShowNFO(t *testing.T) {
	dir := t.TempDir()

	wrote, err := library.EnsureShowNFO(dir, 123456)
	if err != nil {
		t.Fatalf("EnsureShowNFO failed: %v", err)
	}
	if !wrote {
		t.Fatal("expected nfo to be written")
	}
	data, err := os.ReadFile(filepath.Join(dir, library.ShowNFOName))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "<tvshow>") || !strings.Contains(content, `<uniqueid type="tmdb" default="true">123456</uniqueid>`) {
		t.Fatalf("unexpected nfo content:\n%s", content)
	}

	if err := os.WriteFile(filepath.Join(dir, library.ShowNFOName), []byte("custom"), 0o644); err != nil {
		t.Fatal(err)
	}
	wrote, err = library.EnsureShowNFO(dir, 999)
	if err != nil {
		t.Fatalf("second EnsureShowNFO failed: %v", err)
	}
	if wrote {
		t.Fatal("existing nfo must not be rewritten")
	}
	data, _ = os.ReadFile(filepath.Join(dir, library.ShowNFOName))
	if string(data) != "custom" {
		t.Fatalf("existing nfo was modified: %q", data)
	}
}

func TestEnsureShowNFOMissingDir(t *testing.T) {
	if _, err := library.EnsureShowNFO(filepath.Join(t.TempDir(), "missing"), 1); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
