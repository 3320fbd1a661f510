//go:build !windows

package fsx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dixieflatline76/SpiceLock/util/log"
	"github.com/google/renameio/v2"
)

// WriteFile atomically replaces path with data, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("atomically write %s: %w", path, err)
	}
	return nil
}

// WriteFrom atomically replaces dst with everything read from r.
func WriteFrom(dst string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}

	pendingFile, err := renameio.NewPendingFile(dst, renameio.WithPermissions(0644))
	if err != nil {
		return fmt.Errorf("create pending file for %s: %w", dst, err)
	}
	defer func() {
		// no-op once committed
		if err := pendingFile.Cleanup(); err != nil {
			log.Debugf("fsx: cleanup pending file for %s: %v", dst, err)
		}
	}()

	if _, err := io.Copy(pendingFile, r); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", dst, err)
	}
	return nil
}
