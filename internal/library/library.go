package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"shelver/internal/fileutil"
)

// ShowNFOName is the show-level metadata file media servers read.
const ShowNFOName = "tvshow.nfo"

// nameReplacer replaces filesystem-unsafe characters with safe alternatives.
var nameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeName makes a show title usable as a single directory name.
func SanitizeName(name string) string {
	name = strings.TrimSpace(nameReplacer.Replace(strings.TrimSpace(name)))
	name = strings.Trim(name, ".")
	return strings.TrimSpace(name)
}

// SeasonDir renders the season directory name from a format holding one %d.
func SeasonDir(format string, season int) string {
	if strings.TrimSpace(format) == "" {
		format = "season %d"
	}
	return fmt.Sprintf(format, season)
}

// ShowDir returns the directory for name beneath root. An existing entry whose
// name differs only by case is reused.
func ShowDir(root, name string) (string, error) {
	clean := SanitizeName(name)
	if clean == "" {
		return "", fmt.Errorf("show name %q is empty after sanitizing", name)
	}
	entries, err := os.ReadDir(root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read library root %s: %w", root, err)
	}
	folder := cases.Fold()
	want := folder.String(clean)
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() != clean && folder.String(entry.Name()) == want {
			return filepath.Join(root, entry.Name()), nil
		}
	}
	return filepath.Join(root, clean), nil
}

// Destination describes where one task's files land.
type Destination struct {
	Root      string
	ShowDir   string
	SeasonDir string
}

// Plan computes the destination for a show and season under root without
// touching the filesystem beyond reading root.
func Plan(root, showName, seasonFormat string, season int) (Destination, error) {
	if !filepath.IsAbs(root) {
		return Destination{}, fmt.Errorf("library root %q must be absolute", root)
	}
	show, err := ShowDir(root, showName)
	if err != nil {
		return Destination{}, err
	}
	return Destination{
		Root:      root,
		ShowDir:   show,
		SeasonDir: filepath.Join(show, SeasonDir(seasonFormat, season)),
	}, nil
}

// Prepare creates the season directory. A non-directory already at that path
// yields fileutil.ErrNotDirectory.
func (d Destination) Prepare() error {
	return fileutil.EnsureDir(d.SeasonDir)
}

// EnsureShowNFO writes a minimal tvshow.nfo carrying the TMDB id into dir when
// none exists. It reports whether a file was written.
func EnsureShowNFO(dir string, contentID int64) (bool, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return false, fmt.Errorf("show directory: %w", err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%s: %w", dir, fileutil.ErrNotDirectory)
	}

	path := filepath.Join(dir, ShowNFOName)
	if _, err := os.Lstat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	if err := fileutil.WriteFileAtomic(path, []byte(ShowNFO(contentID)), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// ShowNFO renders the minimal show metadata document.
func ShowNFO(contentID int64) string {
	return fmt.Sprintf("<?xml version=\"1.0\" encoding=\"UTF-8\" standalone=\"yes\"?>\n"+
		"<tvshow>\n"+
		"  <uniqueid type=\"tmdb\" default=\"true\">%d</uniqueid>\n"+
		"</tvshow>\n", contentID)
}
