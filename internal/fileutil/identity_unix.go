//go:build unix

package fileutil

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Identity is the device and inode pair that names a file's storage.
type Identity struct {
	Dev uint64
	Ino uint64
}

// IdentityOf stats path without following a final symlink.
func IdentityOf(path string) (Identity, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return Identity{}, fmt.Errorf("lstat %s: %w", path, err)
	}
	return Identity{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, nil
}

// LinkCount returns the number of hard links to path.
func LinkCount(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0, fmt.Errorf("lstat %s: %w", path, err)
	}
	return uint64(st.Nlink), nil
}
