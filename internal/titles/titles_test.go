package titles_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"shelver/internal/relocate"
	"shelver/internal/testsupport"
	"shelver/internal/titles"
)

func TestSampleTableLoads(t *testing.T) {
	list, err := titles.Parse([]byte(titles.Sample()), titles.FormatTOML)
	if err != nil {
		t.Fatalf("Parse sample failed: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("expected sample titles")
	}
	for _, title := range list {
		if title.Selector() == nil {
			t.Fatalf("title %s has no compiled selector", title.Key())
		}
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
titles:
  - content_id: 277513
    season: 1
    name: 我怎么可能成为你的恋人，不行不行！
    pattern: '(?i)^(?!.*v\d+).*我怎么可能成为你的恋人'
  - content_id: 86031
    season: 4
    pattern: 'Dr\.STONE'
    match_on: relative
`)
	list, err := titles.Parse(data, titles.FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 titles, got %d", len(list))
	}
	if list[1].MatchOn != "relative" || list[1].Key() != "content-86031-s4" {
		t.Fatalf("unexpected second title %+v", list[1])
	}

	sel := list[0].Selector()
	for name, want := range map[string]bool{
		"[Sub] 我怎么可能成为你的恋人，不行不行！ - 06 [1080p].mkv":   true,
		"[Sub] 我怎么可能成为你的恋人，不行不行！ - 06v2 [1080p].mkv": false,
		"[Sub] 我怎么可能成为你的恋人 - 07V3.mkv":              false,
	} {
		got, err := sel.MatchString(name)
		if err != nil {
			t.Fatalf("MatchString failed: %v", err)
		}
		if got != want {
			t.Fatalf("MatchString(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestParseRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "duplicate key",
			data: "[[title]]\ncontent_id = 1\nseason = 1\npattern = 'a'\n[[title]]\ncontent_id = 1\nseason = 1\npattern = 'b'\n",
			want: "already defined",
		},
		{
			name: "bad pattern",
			data: "[[title]]\ncontent_id = 1\nseason = 1\npattern = '(a'\n",
			want: "content-1-s1",
		},
		{
			name: "missing season",
			data: "[[title]]\ncontent_id = 1\npattern = 'a'\n",
			want: "season must be positive",
		},
		{
			name: "bad match target",
			data: "[[title]]\ncontent_id = 1\nseason = 1\npattern = 'a'\nmatch_on = 'glob'\n",
			want: "match_on",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := titles.Parse([]byte(tt.data), titles.FormatTOML)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestFormatForPath(t *testing.T) {
	for path, want := range map[string]titles.Format{
		"titles.toml": titles.FormatTOML,
		"titles.YAML": titles.FormatYAML,
		"titles.yml":  titles.FormatYAML,
	} {
		got, err := titles.FormatForPath(path)
		if err != nil || got != want {
			t.Fatalf("FormatForPath(%s) = %q, %v", path, got, err)
		}
	}
	if _, err := titles.FormatForPath("titles.json"); err == nil {
		t.Fatal("expected error for json extension")
	}
}

func TestLoadRegistryDispatchesByKey(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "titles.toml")
	if err := os.WriteFile(path, []byte("[[title]]\ncontent_id = 86031\nseason = 4\npattern = 'Dr\\.STONE'\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg, list, err := titles.LoadRegistry(path, relocate.Options{})
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	if len(list) != 1 || !reflect.DeepEqual(reg.Keys(), []string{"content-86031-s4"}) {
		t.Fatalf("unexpected registry keys %v", reg.Keys())
	}
	if err := reg.Register("content-1-s1", relocate.NewHandler(nil, relocate.Options{})); !errors.Is(err, relocate.ErrRegistryFrozen) {
		t.Fatalf("expected frozen registry, got %v", err)
	}

	source := testsupport.WriteTree(t, filepath.Join(base, "inbox"),
		"[Sub] Dr.STONE S4 - 01.mkv",
		"[Sub] One Piece - 1100.mkv",
	)
	destination := filepath.Join(base, "library")
	handler, err := reg.Resolve("CONTENT-86031-S4")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, err := handler(context.Background(), source, destination); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if got := testsupport.ListDir(t, destination); !reflect.DeepEqual(got, []string{"[Sub] Dr.STONE S4 - 01.mkv"}) {
		t.Fatalf("unexpected destination entries %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := titles.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "titles.toml")
	if err := titles.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, err := titles.Load(path); err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if err := titles.CreateSample(path); err == nil {
		t.Fatal("expected error when table already exists")
	}
}
