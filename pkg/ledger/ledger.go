// Package ledger keeps the local record of every asset injected into the
// catalog. The catalog says what the agent sees; the ledger says what this
// application put there.
package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/dixieflatline76/SpiceLock/pkg/apperr"
	"github.com/dixieflatline76/SpiceLock/pkg/fsx"
	"github.com/dixieflatline76/SpiceLock/util/log"
)

// Record describes one injected asset.
type Record struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"displayName"`
	SourcePath    string    `json:"sourcePath"`
	VideoPath     string    `json:"videoPath"`
	ThumbnailPath string    `json:"thumbnailPath,omitempty"`
	Strategy      string    `json:"strategy,omitempty"`
	Degraded      bool      `json:"degraded,omitempty"`
	InjectedAt    time.Time `json:"injectedAt"`
}

// Ledger is a thread-safe list of records persisted as one JSON document.
type Ledger struct {
	mu      sync.RWMutex
	records []Record
	idSet   map[string]bool
	path    string
}

// New creates an empty ledger backed by path.
func New(path string) *Ledger {
	return &Ledger{
		records: make([]Record, 0),
		idSet:   make(map[string]bool),
		path:    path,
	}
}

// Path returns the backing file.
func (l *Ledger) Path() string { return l.path }

// Load replaces the in-memory records with the file's contents. A missing or
// unreadable file yields an empty ledger.
func (l *Ledger) Load() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = make([]Record, 0)
	l.idSet = make(map[string]bool)

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Ledger: failed to read %s, starting empty: %v", l.path, err)
		}
		return
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("Ledger: %s is corrupt, starting empty: %v", l.path, err)
		return
	}
	for _, r := range records {
		if r.ID == "" || l.idSet[r.ID] {
			continue
		}
		l.records = append(l.records, r)
		l.idSet[r.ID] = true
	}
	log.Debugf("Ledger: loaded %d records", len(l.records))
}

// Save atomically writes the records to disk.
func (l *Ledger) Save() error {
	l.mu.RLock()
	snapshot := make([]Record, len(l.records))
	copy(snapshot, l.records)
	l.mu.RUnlock()

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot); err != nil {
		return apperr.FileOperationFailed("encode ledger", err)
	}
	if err := fsx.WriteFile(l.path, buf.Bytes()); err != nil {
		return apperr.FileOperationFailed("write ledger", err)
	}
	return nil
}

// List returns a copy of the records, oldest injection first.
func (l *Ledger) List() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res := make([]Record, len(l.records))
	copy(res, l.records)
	return res
}

// Upsert stores r, replacing any record with the same ID. The record moves to
// the end of the list since it is the most recent injection.
func (l *Ledger) Upsert(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.idSet[r.ID] {
		l.deleteLocked(r.ID)
	}
	l.records = append(l.records, r)
	l.idSet[r.ID] = true
}

// Delete removes the record for id and reports whether it existed.
func (l *Ledger) Delete(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleteLocked(id)
}

// CALLER MUST HOLD l.mu.Lock()
func (l *Ledger) deleteLocked(id string) bool {
	if !l.idSet[id] {
		return false
	}
	for i, r := range l.records {
		if r.ID == id {
			l.records = append(l.records[:i], l.records[i+1:]...)
			break
		}
	}
	delete(l.idSet, id)
	return true
}

// Get returns the record for id.
func (l *Ledger) Get(id string) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, r := range l.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Contains reports whether a record exists for id.
func (l *Ledger) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.idSet[id]
}

// Count returns the number of records.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Clear drops every record. Call Save to persist.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = make([]Record, 0)
	l.idSet = make(map[string]bool)
}
