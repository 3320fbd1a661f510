// Package catalog reads and rewrites the screen saver agent's asset catalog.
//
// The catalog is owned by a third party, so the store never assumes its exact
// shape. Documents that match the typed schema are rewritten through it. Any
// other document is rewritten through a generic JSON tree so that fields this
// package does not know about survive.
//
// Every mutation is a read-modify-write of the whole document followed by an
// atomic replace. Before the first mutation the pristine document is copied to
// a backup file which is never overwritten.
package catalog

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/dixieflatline76/SpiceLock/pkg/apperr"
	"github.com/dixieflatline76/SpiceLock/pkg/fsx"
	"github.com/dixieflatline76/SpiceLock/util/log"
)

// ErrNoBackup is wrapped by Restore when no backup was ever taken.
var ErrNoBackup = errors.New("no catalog backup exists")

// CustomEntry is an entry that points into this application's videos directory.
type CustomEntry struct {
	ID          string
	DisplayName string
}

// Options configures a Store.
type Options struct {
	Manifest string // live document
	Backup   string // one-time snapshot of the live document
	// URLPrefix identifies injected entries by their video URL.
	URLPrefix string
}

// Store serializes access to the live catalog document.
type Store struct {
	manifest  string
	backup    string
	urlPrefix string
	mu        sync.Mutex
}

// NewStore creates a Store for opts.
func NewStore(opts Options) *Store {
	return &Store{
		manifest:  opts.Manifest,
		backup:    opts.Backup,
		urlPrefix: opts.URLPrefix,
	}
}

// ManifestPath returns the live document path.
func (s *Store) ManifestPath() string { return s.manifest }

// HasBackup reports whether the one-time backup exists. A backup that cannot
// be checked counts as present.
func (s *Store) HasBackup() bool {
	ok, err := s.backupExists()
	return ok || err != nil
}

func (s *Store) backupExists() (bool, error) {
	_, err := os.Stat(s.backup)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// BackupOnce copies the live document to the backup path unless a backup
// already exists.
func (s *Store) BackupOnce() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.backupExists()
	if err != nil {
		return apperr.BackupFailed("check catalog backup", err)
	}
	if exists {
		return nil
	}
	data, err := os.ReadFile(s.manifest)
	if err != nil {
		return apperr.BackupFailed("read live catalog", err)
	}
	if err := fsx.WriteFile(s.backup, data); err != nil {
		return apperr.BackupFailed("write catalog backup", err)
	}
	log.Printf("Catalog: backed up %s to %s", s.manifest, s.backup)
	return nil
}

// Merge inserts e at the head of the asset list, replacing any entry with the
// same id.
func (s *Store) Merge(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc.remove(e.ID) {
		log.Debugf("Catalog: replacing existing entry %s", e.ID)
	}
	if err := doc.prepend(e); err != nil {
		return apperr.Manifest("insert entry", err)
	}
	if err := s.write(doc); err != nil {
		return err
	}
	log.Printf("Catalog: merged entry %s (%d assets)", e.ID, doc.count())
	return nil
}

// Remove drops the entry with id. An absent id or a missing document is a no-op.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("Catalog: %s is gone, nothing to remove for %s", s.manifest, id)
			return nil
		}
		return err
	}
	if !doc.remove(id) {
		return nil
	}
	if err := s.write(doc); err != nil {
		return err
	}
	log.Printf("Catalog: removed entry %s", id)
	return nil
}

// Restore replaces the live document with the exact bytes of the backup.
func (s *Store) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.backup)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.BackupFailed("restore catalog", ErrNoBackup)
		}
		return apperr.BackupFailed("read catalog backup", err)
	}
	if err := fsx.WriteFile(s.manifest, data); err != nil {
		return apperr.BackupFailed("replace live catalog", err)
	}
	log.Printf("Catalog: restored %s from backup", s.manifest)
	return nil
}

// Count returns the number of assets. A missing document counts as empty.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	return doc.count(), nil
}

// ListCustomEntries returns the entries whose video URL lies under the
// configured prefix, in catalog order.
func (s *Store) ListCustomEntries() ([]CustomEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []CustomEntry{}, nil
		}
		return nil, err
	}
	custom := []CustomEntry{}
	for _, e := range doc.entries() {
		if e.ID == "" || s.urlPrefix == "" || !strings.HasPrefix(e.VideoURL, s.urlPrefix) {
			continue
		}
		custom = append(custom, CustomEntry{ID: e.ID, DisplayName: e.DisplayName})
	}
	return custom, nil
}

// load reads and parses the live document. A missing file is reported as a
// manifest error that still matches os.ErrNotExist.
func (s *Store) load() (*parsed, error) {
	data, err := os.ReadFile(s.manifest)
	if err != nil {
		return nil, apperr.Manifest("read catalog", err)
	}
	doc, err := parse(data)
	if err != nil {
		return nil, apperr.Manifest("parse catalog", err)
	}
	if !doc.Strict() {
		log.Debugf("Catalog: %s does not match the typed schema, using generic rewrite", s.manifest)
	}
	return doc, nil
}

func (s *Store) write(doc *parsed) error {
	data, err := doc.encode()
	if err != nil {
		return apperr.Manifest("encode catalog", err)
	}
	if err := fsx.WriteFile(s.manifest, data); err != nil {
		return apperr.Manifest("write catalog", err)
	}
	return nil
}
