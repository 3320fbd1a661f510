package fsx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dixieflatline76/SpiceLock/util/log"
	"github.com/google/renameio/v2/maybe"
)

// WriteFile replaces path with data, creating parent directories. Windows
// cannot replace a file atomically, so a crash mid-write may leave it short.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}
	if err := maybe.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteFrom replaces dst with everything read from r through a temporary
// file in the same directory.
func WriteFrom(dst string, r io.Reader) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", dst, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err := RemoveIfExists(tmpName); err != nil {
			log.Debugf("fsx: cleanup temp file for %s: %v", dst, err)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("replace %s: %w", dst, err)
	}
	return nil
}
