package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

var (
	// ErrNotDirectory marks a path that exists but is not a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrDestinationExists marks a link target occupied by a different file.
	ErrDestinationExists = errors.New("destination exists with different content")
)

// LinkOutcome reports what Link did.
type LinkOutcome int

const (
	// Linked means a new directory entry was created.
	Linked LinkOutcome = iota
	// AlreadyLinked means dst already referred to src's inode.
	AlreadyLinked
	// Replaced means a different file at dst was swapped for a link to src.
	Replaced
)

func (o LinkOutcome) String() string {
	switch o {
	case Linked:
		return "linked"
	case AlreadyLinked:
		return "already_linked"
	case Replaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// Link hard-links src to dst. When dst already names src's inode the call is a
// no-op. When dst names a different file, Link fails with ErrDestinationExists
// unless overwrite is set, in which case dst is atomically replaced.
func Link(src, dst string, overwrite bool) (LinkOutcome, error) {
	err := os.Link(src, dst)
	if err == nil {
		return Linked, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return Linked, fmt.Errorf("link %s -> %s: %w", src, dst, err)
	}

	same, sameErr := SameFile(src, dst)
	if sameErr != nil {
		return Linked, fmt.Errorf("compare %s and %s: %w", src, dst, sameErr)
	}
	if same {
		return AlreadyLinked, nil
	}
	if !overwrite {
		return Linked, fmt.Errorf("link %s -> %s: %w", src, dst, ErrDestinationExists)
	}

	tmp := filepath.Join(filepath.Dir(dst), ".shelver-link-"+strconv.Itoa(os.Getpid())+"-"+filepath.Base(dst))
	_ = os.Remove(tmp)
	if err := os.Link(src, tmp); err != nil {
		return Linked, fmt.Errorf("link %s -> %s: %w", src, tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return Linked, fmt.Errorf("replace %s: %w", dst, err)
	}
	return Replaced, nil
}

// SameFile reports whether a and b refer to the same device and inode.
func SameFile(a, b string) (bool, error) {
	ia, err := IdentityOf(a)
	if err != nil {
		return false, err
	}
	ib, err := IdentityOf(b)
	if err != nil {
		return false, err
	}
	return ia == ib, nil
}

// EnsureDir creates path and its parents. An existing non-directory at path
// yields ErrNotDirectory.
func EnsureDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("%s: %w", path, ErrNotDirectory)
		}
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// WriteFileAtomic writes data to a temp file in path's directory and renames
// it into place.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".shelver-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
