//go:build windows

package fsutil

import (
	"os"
)

// OpenNoFollow opens a file.
// On Windows, O_NOFOLLOW is not available. Symlink attacks are less common
// on Windows due to privilege requirements for symlink creation.
func OpenNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}

// OpenNoFollowRead opens a file for reading. See OpenNoFollow for details.
func OpenNoFollowRead(path string) (*os.File, error) {
	return os.Open(path)
}
