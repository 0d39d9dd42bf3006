// Package fsutil holds the symlink-safe file helpers shared by the file
// store and import/export.
package fsutil

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"os"
)

// ErrSymlink is returned when a path that must be a regular file is a symlink.
var ErrSymlink = stderrors.New("path is a symlink")

// WriteAtomic writes a file by streaming into a random temp file next to path,
// fsyncing it and renaming it into place. If write or any later step fails,
// the temp file is removed and the existing file at path is left untouched.
// A symlink at path is refused with ErrSymlink.
func WriteAtomic(path string, perm os.FileMode, write func(w io.Writer) error) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return fmt.Errorf("failed to generate temp file name: %w", err)
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	file, err := OpenNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	bw := bufio.NewWriter(file)
	if err := write(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", tempPath, err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tempPath, err)
	}

	// Close before rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tempPath, err)
	}
	file = nil

	// os.Rename would replace a symlinked destination with a regular file.
	// Callers that trust the link resolve it first.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%s: %w", path, ErrSymlink)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename into place: %w", err)
	}

	success = true
	return nil
}
