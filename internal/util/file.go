package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// RenameFunc matches os.Rename.
type RenameFunc func(oldpath, newpath string) error

// PromoteFile moves tmp over final in a single rename. On the same filesystem
// the rename replaces final atomically, so final is always either the previous
// artifact or the new one. If the rename fails, both files are left as they were.
func PromoteFile(tmp, final string, rename RenameFunc) error {
	if rename == nil {
		rename = os.Rename
	}

	info, err := os.Stat(tmp)
	if err != nil {
		return fmt.Errorf("promote: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("promote: %s is a directory", tmp)
	}

	if dir := filepath.Dir(final); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("promote: %w", err)
		}
	}

	if err := rename(tmp, final); err != nil {
		return fmt.Errorf("promote %s -> %s: %w", tmp, final, err)
	}

	return nil
}

// RemoveIfExists deletes path and ignores a missing file.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AbsPath returns the absolute form of path, or path itself if that fails.
func AbsPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
