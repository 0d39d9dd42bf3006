//go:build !windows

package fsutil

import (
	stderrors "errors"
	"fmt"
	"os"
	"syscall"
)

// OpenNoFollow opens a file with O_NOFOLLOW to prevent symlink attacks
// on the final path component. O_CLOEXEC prevents FD leaks across exec.
//
// Note: O_NOFOLLOW only protects the final component. Callers that accept
// user paths validate directory components first.
func OpenNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, fmt.Errorf("%s: %w", path, ErrSymlink)
		}
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return os.NewFile(uintptr(fd), path), nil
}

// OpenNoFollowRead opens a file for reading with O_NOFOLLOW.
// A missing file yields an error matching os.ErrNotExist.
func OpenNoFollowRead(path string) (*os.File, error) {
	return OpenNoFollow(path, syscall.O_RDONLY, 0)
}
