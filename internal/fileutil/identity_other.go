//go:build !unix

package fileutil

import (
	"errors"
	"fmt"
	"runtime"
)

// Identity is the device and inode pair that names a file's storage.
type Identity struct {
	Dev uint64
	Ino uint64
}

var errUnsupported = errors.New("inode identity unsupported on " + runtime.GOOS)

// IdentityOf is unavailable on this platform.
func IdentityOf(path string) (Identity, error) {
	return Identity{}, fmt.Errorf("%s: %w", path, errUnsupported)
}

// LinkCount is unavailable on this platform.
func LinkCount(path string) (uint64, error) {
	return 0, fmt.Errorf("%s: %w", path, errUnsupported)
}
