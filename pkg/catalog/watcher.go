package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dixieflatline76/SpiceLock/util/log"
	"github.com/fsnotify/fsnotify"
)

// Change reports that the live document was rewritten or removed.
type Change struct {
	Path    string
	Removed bool
}

// Watcher observes the directory holding the live document. The directory is
// watched rather than the file because atomic replaces swap the inode.
type Watcher struct {
	path     string
	Debounce time.Duration
}

// NewWatcher creates a Watcher for the document at manifest.
func NewWatcher(manifest string) *Watcher {
	return &Watcher{path: manifest, Debounce: 500 * time.Millisecond}
}

// Watch starts watching and returns a channel of coalesced changes. The
// channel is closed once ctx is done.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	out := make(chan Change, 1)
	go w.loop(ctx, fw, out)
	log.Printf("Catalog: watching %s", w.path)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, out chan<- Change) {
	defer close(out)
	defer func() {
		if err := fw.Close(); err != nil {
			log.Debugf("Catalog: closing watcher: %v", err)
		}
	}()

	base := filepath.Base(w.path)
	timer := time.NewTimer(w.Debounce)
	timer.Stop()
	defer timer.Stop()

	var pending Change
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				pending = Change{Path: w.path, Removed: true}
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				pending = Change{Path: w.path}
			default:
				continue
			}
			timer.Reset(w.Debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case out <- pending:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Printf("Catalog: watcher error: %v", err)
		}
	}
}
