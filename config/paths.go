package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the filesystem layout the injector works against.
type Paths struct {
	Manifest      string // live catalog document
	Backup        string // one-time pristine snapshot, sibling of Manifest
	VideosDir     string // placed videos, one per identifier
	ThumbnailsDir string // placed preview images
	CacheDir      string // conversion outputs keyed by identifier
	Ledger        string // local injection records
}

// NewPaths derives the layout from the vendor customer directory and the
// application's private state directory.
func NewPaths(customerDir, stateDir string) Paths {
	manifest := filepath.Join(customerDir, ManifestFileName)
	return Paths{
		Manifest:      manifest,
		Backup:        manifest + BackupSuffix,
		VideosDir:     filepath.Join(customerDir, VideosSubDir),
		ThumbnailsDir: filepath.Join(customerDir, ThumbnailsSubDir),
		CacheDir:      filepath.Join(stateDir, CacheSubDir),
		Ledger:        filepath.Join(stateDir, LedgerFileName),
	}
}

// DefaultStateDir returns ~/.spicelock.
func DefaultStateDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}
	return filepath.Join(homeDir, LogSubDir), nil
}

// DefaultPaths returns the layout rooted at the vendor customer directory and ~/.spicelock.
func DefaultPaths() (Paths, error) {
	stateDir, err := DefaultStateDir()
	if err != nil {
		return Paths{}, err
	}
	return NewPaths(DefaultCustomerDir, stateDir), nil
}

// WorkingDirs lists the directories that must exist before an injection.
func (p Paths) WorkingDirs() []string {
	return []string{p.VideosDir, p.ThumbnailsDir, p.CacheDir, filepath.Dir(p.Ledger)}
}
