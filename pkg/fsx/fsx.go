// Package fsx provides atomic file writes: data goes to a temporary file in
// the destination directory, is fsynced, then renamed over the target. A
// crash mid-write leaves the previous file intact.
package fsx

import (
	"errors"
	"fmt"
	"os"
)

// CopyFile atomically replaces dst with the contents of src.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	return WriteFrom(dst, in)
}

// Exists reports whether path exists as a regular, non-empty file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// RemoveIfExists deletes path. A missing file is not an error.
func RemoveIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
