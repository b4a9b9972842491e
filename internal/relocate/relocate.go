package relocate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"shelver/internal/fileutil"
)

// ErrSourceMissing marks a source path that does not exist.
var ErrSourceMissing = errors.New("source content missing")

// Options tunes how conflicts at the destination are handled.
type Options struct {
	// Overwrite replaces a different file already at a destination name.
	Overwrite bool
}

// Result lists destination paths by what happened to them, plus skipped
// source paths.
type Result struct {
	Linked        []string
	AlreadyLinked []string
	Replaced      []string
	Skipped       []string
}

// Total returns the number of destination entries that now refer to a source.
func (r Result) Total() int {
	return len(r.Linked) + len(r.AlreadyLinked) + len(r.Replaced)
}

func (r *Result) record(outcome fileutil.LinkOutcome, dst string) {
	switch outcome {
	case fileutil.AlreadyLinked:
		r.AlreadyLinked = append(r.AlreadyLinked, dst)
	case fileutil.Replaced:
		r.Replaced = append(r.Replaced, dst)
	default:
		r.Linked = append(r.Linked, dst)
	}
}

// Relocate hard-links source into the destination directory.
//
// A single source file is linked directly and sel is ignored. A source
// directory is walked recursively; every regular file accepted by sel is linked
// into destination by base name only. A nil selector accepts every file.
// Symlinks are resolved: a symlinked source root is walked as the directory it
// points at, and a symlinked file inside it links its target under the
// symlink's name. Symlinked directories inside the tree, broken links and
// special files are recorded as skipped. Re-running over already linked files
// is a no-op.
func Relocate(ctx context.Context, source, destination string, sel *Selector, opts Options) (Result, error) {
	var result Result

	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, fmt.Errorf("%w: %s", ErrSourceMissing, source)
		}
		return result, fmt.Errorf("stat source %s: %w", source, err)
	}
	root, err := filepath.EvalSymlinks(source)
	if err != nil {
		return result, fmt.Errorf("resolve source %s: %w", source, err)
	}
	if err := fileutil.EnsureDir(destination); err != nil {
		return result, err
	}

	if !info.IsDir() {
		dst := filepath.Join(destination, filepath.Base(source))
		outcome, err := fileutil.Link(root, dst, opts.Overwrite)
		if err != nil {
			return result, err
		}
		result.record(outcome, dst)
		return result, nil
	}

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		target, ok := linkTarget(path, entry)
		if !ok {
			result.Skipped = append(result.Skipped, path)
			return nil
		}
		if sel != nil {
			ok, err := sel.Match(root, path)
			if err != nil {
				return err
			}
			if !ok {
				result.Skipped = append(result.Skipped, path)
				return nil
			}
		}
		dst := filepath.Join(destination, entry.Name())
		outcome, err := fileutil.Link(target, dst, opts.Overwrite)
		if err != nil {
			return err
		}
		result.record(outcome, dst)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("relocate %s: %w", source, err)
	}
	return result, nil
}

// linkTarget returns the regular file a walked entry stands for.
func linkTarget(path string, entry fs.DirEntry) (string, bool) {
	if entry.Type().IsRegular() {
		return path, true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return "", false
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return target, true
}

// NewHandler returns a Handler that relocates with sel and opts.
func NewHandler(sel *Selector, opts Options) Handler {
	return func(ctx context.Context, source, destination string) (Result, error) {
		return Relocate(ctx, source, destination, sel, opts)
	}
}
