package ops

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dogfacts/dogfacts/internal/config"
	"github.com/dogfacts/dogfacts/internal/errors"
)

// PathCheckMode says whether a transfer path will be read (import) or
// written (export).
type PathCheckMode int

const (
	PathCheckRead PathCheckMode = iota
	PathCheckWrite
)

// exportExt is the only extension import and export accept.
const exportExt = ".jsonl"

// ValidatePath decides whether an import or export may touch path.
//
// The path must be a .jsonl file with no ".." component, sitting directly
// inside the exports directory or an allowed_paths entry. AllowUnsafePaths
// lifts the directory rule only. The file itself may never be a symlink,
// matching the O_NOFOLLOW open that follows. A missing file is an error
// only when reading.
func ValidatePath(path string, mode PathCheckMode, cfg *config.Config) error {
	abs, err := checkShape(path)
	if err != nil {
		return err
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		if err := checkLocation(abs, cfg); err != nil {
			return err
		}
	}

	return checkTarget(path, abs, mode)
}

// checkShape applies the purely lexical rules and returns the absolute path.
func checkShape(path string) (string, error) {
	switch {
	case path == "":
		return "", errors.NewInvalidRequest("path is required")
	case containsTraversal(path):
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	case filepath.Ext(path) != exportExt:
		return "", errors.NewInvalidRequest("path must have " + exportExt + " extension")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	return abs, nil
}

// checkLocation requires abs to live directly in one of the transfer
// directories, with no subdirectory in between, and that directory not to
// be a link.
func checkLocation(abs string, cfg *config.Config) error {
	dirs, err := transferDirs(cfg)
	if err != nil {
		return err
	}

	parent := filepath.Dir(abs)
	if !slices.Contains(dirs, parent) {
		return errors.NewInvalidRequest(fmt.Sprintf(
			"file must be directly in an allowed directory (no subdirectories); allowed: %v", dirs))
	}
	if isSymlink(parent) {
		return errors.NewInvalidRequest("parent directory must not be a symlink")
	}
	return nil
}

// checkTarget inspects the file itself.
func checkTarget(path, abs string, mode PathCheckMode) error {
	info, err := os.Lstat(abs)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		return errors.NewInvalidRequest("path must not be a symlink")
	case stderrors.Is(err, os.ErrNotExist) && mode == PathCheckRead:
		return errors.NewFileNotFound(path)
	}
	return nil
}

// transferDirs lists the directories import and export may use: the exports
// directory plus every absolute allowed_paths entry. Entries that are links
// are replaced by their targets.
func transferDirs(cfg *config.Config) ([]string, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	candidates := []string{cfg.ExportsDir()}
	for _, p := range cfg.AllowedPaths {
		if filepath.IsAbs(p) {
			candidates = append(candidates, p)
		}
	}

	dirs := make([]string, 0, len(candidates))
	for _, d := range candidates {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if isSymlink(abs) {
			if abs, err = filepath.EvalSymlinks(abs); err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
		}
		dirs = append(dirs, abs)
	}
	return dirs, nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// containsTraversal reports whether any component of path is "..".
// Forward slashes separate components on every platform.
func containsTraversal(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}
