// Package lockscreen injects user videos into the screen saver agent's asset
// catalog and removes them again.
//
// An injection converts the source to the agent's video profile, places the
// result and a preview image next to the vendor's assets, merges a catalog
// entry at the head of the list, asks the agent to reload and records the
// injection in a local ledger. A failure at any step before the ledger is
// written undoes the earlier steps, so the catalog never references files that
// are not there.
package lockscreen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dixieflatline76/SpiceLock/config"
	"github.com/dixieflatline76/SpiceLock/pkg/agent"
	"github.com/dixieflatline76/SpiceLock/pkg/apperr"
	"github.com/dixieflatline76/SpiceLock/pkg/catalog"
	"github.com/dixieflatline76/SpiceLock/pkg/fsx"
	"github.com/dixieflatline76/SpiceLock/pkg/ledger"
	"github.com/dixieflatline76/SpiceLock/pkg/media"
	"github.com/dixieflatline76/SpiceLock/util/log"
	"github.com/google/uuid"
)

// Converter turns a source video into a profile-compliant file.
type Converter interface {
	Validate(ctx context.Context, source string) (*media.ProbeResult, error)
	ConvertProbed(ctx context.Context, probe *media.ProbeResult, id string) (media.Outcome, error)
	Evict(id string) error
}

// ThumbnailGenerator renders a preview image for a video.
type ThumbnailGenerator interface {
	Generate(ctx context.Context, videoPath, dst string) error
}

// Catalog is the live asset catalog.
type Catalog interface {
	BackupOnce() error
	HasBackup() bool
	Merge(e catalog.Entry) error
	Remove(id string) error
	Restore() error
	Count() (int, error)
	ListCustomEntries() ([]catalog.CustomEntry, error)
}

// Reloader makes the agent re-read the catalog.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Tagger marks a placed file for the agent.
type Tagger interface {
	Tag(path string) error
}

// Options configures an Injector. Paths is required; nil collaborators are
// built from Paths with default settings.
type Options struct {
	Paths       config.Paths
	Converter   Converter
	Thumbnailer ThumbnailGenerator
	Catalog     Catalog
	Ledger      *ledger.Ledger
	Reloader    Reloader
	Tagger      Tagger

	Now   func() time.Time
	NewID func() string
	// OnStatus is called after every state transition.
	OnStatus func(Status)
}

// Injector runs injections, removals and restores one at a time.
type Injector struct {
	paths       config.Paths
	converter   Converter
	thumbnailer ThumbnailGenerator
	catalog     Catalog
	ledger      *ledger.Ledger
	reloader    Reloader
	tagger      Tagger
	placement   *Placement

	now      func() time.Time
	newID    func() string
	onStatus func(Status)

	opMu    sync.Mutex
	stateMu sync.RWMutex
	status  Status
}

// New creates an Injector. A ledger created here is loaded from Paths.Ledger.
func New(opts Options) *Injector {
	i := &Injector{
		paths:       opts.Paths,
		converter:   opts.Converter,
		thumbnailer: opts.Thumbnailer,
		catalog:     opts.Catalog,
		ledger:      opts.Ledger,
		reloader:    opts.Reloader,
		tagger:      opts.Tagger,
		placement:   NewPlacement(opts.Paths.VideosDir, opts.Paths.ThumbnailsDir),
		now:         opts.Now,
		newID:       opts.NewID,
		onStatus:    opts.OnStatus,
		status:      Status{State: StateIdle},
	}
	if i.converter == nil {
		i.converter = media.NewEngine(media.Options{CacheDir: opts.Paths.CacheDir})
	}
	if i.thumbnailer == nil {
		i.thumbnailer = media.NewThumbnailer("", nil)
	}
	if i.catalog == nil {
		i.catalog = catalog.NewStore(catalog.Options{
			Manifest:  opts.Paths.Manifest,
			Backup:    opts.Paths.Backup,
			URLPrefix: catalog.DirURLPrefix(opts.Paths.VideosDir),
		})
	}
	if i.ledger == nil {
		i.ledger = ledger.New(opts.Paths.Ledger)
		i.ledger.Load()
	}
	if i.reloader == nil {
		i.reloader = agent.NewReloader(nil)
	}
	if i.tagger == nil {
		i.tagger = NewQuarantineTagger()
	}
	if i.now == nil {
		i.now = time.Now
	}
	if i.newID == nil {
		i.newID = func() string { return strings.ToUpper(uuid.NewString()) }
	}
	InjectedAssets.Set(float64(i.ledger.Count()))
	return i
}

// Inject converts source and registers it in the catalog under id. An empty id
// gets a fresh identifier, an empty displayName defaults to the file name.
// Reusing an id replaces the earlier injection.
func (i *Injector) Inject(ctx context.Context, source, displayName, id string) (string, error) {
	i.opMu.Lock()
	defer i.opMu.Unlock()

	id, err := i.inject(ctx, source, displayName, id)
	observe("inject", err)
	if err != nil {
		i.setStatus(Status{State: StateFailed, Reason: err.Error()})
		return "", err
	}
	return id, nil
}

func (i *Injector) inject(ctx context.Context, source, displayName, id string) (string, error) {
	if id == "" {
		id = i.newID()
	}
	if displayName == "" {
		base := filepath.Base(source)
		displayName = strings.TrimSuffix(base, filepath.Ext(base))
	}

	i.setStatus(Status{State: StateTranscoding, ID: id})
	if err := media.ValidateID(id); err != nil {
		return "", apperr.UnsupportedInput("invalid identifier", err)
	}
	probe, err := i.converter.Validate(ctx, source)
	if err != nil {
		return "", err
	}
	if err := i.ensureDirs(); err != nil {
		return "", err
	}

	// a different source under a reused id must not hit the old cache entry
	if prev, ok := i.ledger.Get(id); ok && prev.SourcePath != source {
		if err := i.converter.Evict(id); err != nil {
			log.Printf("Injector: failed to evict cache for %s: %v", id, err)
		}
	}

	outcome, err := i.converter.ConvertProbed(ctx, probe, id)
	if err != nil {
		return "", err
	}
	ConversionsTotal.WithLabelValues(outcome.Strategy).Inc()

	i.setStatus(Status{State: StateInjecting, ID: id})
	video, err := i.placement.PlaceVideo(outcome.Path, id)
	if err != nil {
		return "", apperr.FileOperationFailed("place video", err)
	}
	if err := i.tagger.Tag(video); err != nil {
		i.rollback(ctx, id)
		return "", apperr.FileOperationFailed("tag video", err)
	}
	thumb := i.placeThumbnail(ctx, video, id)

	if err := ctx.Err(); err != nil {
		i.rollback(ctx, id)
		return "", apperr.TranscodingFailed("cancelled", err)
	}

	if err := i.catalog.BackupOnce(); err != nil {
		i.rollback(ctx, id)
		return "", err
	}
	entry := catalog.NewEntry(catalog.EntryParams{
		ID:            id,
		DisplayName:   displayName,
		VideoPath:     video,
		ThumbnailPath: thumb,
	})
	if err := i.catalog.Merge(entry); err != nil {
		i.rollback(ctx, id)
		return "", err
	}
	i.reload(ctx)

	i.ledger.Upsert(ledger.Record{
		ID:            id,
		DisplayName:   displayName,
		SourcePath:    source,
		VideoPath:     video,
		ThumbnailPath: thumb,
		Strategy:      outcome.Strategy,
		Degraded:      outcome.Degraded,
		InjectedAt:    i.now(),
	})
	if err := i.ledger.Save(); err != nil {
		i.ledger.Delete(id)
		if rmErr := i.catalog.Remove(id); rmErr != nil {
			log.Printf("Injector: failed to withdraw catalog entry %s: %v", id, rmErr)
		}
		i.rollback(ctx, id)
		i.reload(ctx)
		return "", err
	}
	InjectedAssets.Set(float64(i.ledger.Count()))

	if outcome.Degraded {
		log.Warnf("Injector: %s is active but its video may not play, conversion fell back to a raw copy", id)
	} else {
		log.Printf("Injector: %s is active (%s)", id, outcome.Strategy)
	}
	i.setStatus(Status{State: StateActive, ID: id, Degraded: outcome.Degraded})
	return id, nil
}

func (i *Injector) ensureDirs() error {
	for _, dir := range i.paths.WorkingDirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperr.FileOperationFailed(fmt.Sprintf("create %s", dir), err)
		}
	}
	return nil
}

// placeThumbnail renders and tags the preview image. Failures are logged and
// yield an empty path.
func (i *Injector) placeThumbnail(ctx context.Context, video, id string) string {
	thumb, err := i.placement.ThumbnailPath(id)
	if err != nil {
		return ""
	}
	if err := i.thumbnailer.Generate(ctx, video, thumb); err != nil {
		log.Printf("Injector: no preview image for %s: %v", id, err)
		_ = fsx.RemoveIfExists(thumb)
		return ""
	}
	if err := i.tagger.Tag(thumb); err != nil {
		log.Printf("Injector: failed to tag preview image for %s: %v", id, err)
	}
	return thumb
}

// rollback removes what a failed injection placed. If id was injected before,
// its catalog entry now points at deleted files, so that injection is
// withdrawn too.
func (i *Injector) rollback(ctx context.Context, id string) {
	if err := i.placement.Delete(id); err != nil {
		log.Printf("Injector: rollback of %s left files behind: %v", id, err)
	}
	if !i.ledger.Contains(id) {
		return
	}
	log.Printf("Injector: withdrawing earlier injection of %s", id)
	if err := i.catalog.Remove(id); err != nil {
		log.Printf("Injector: failed to withdraw catalog entry %s: %v", id, err)
		return
	}
	i.ledger.Delete(id)
	if err := i.ledger.Save(); err != nil {
		log.Printf("Injector: failed to save ledger: %v", err)
	}
	InjectedAssets.Set(float64(i.ledger.Count()))
	i.reload(ctx)
}

// reload signals the agent. The catalog has already changed, so cancellation
// of ctx is ignored and failures are only logged.
func (i *Injector) reload(ctx context.Context) {
	if err := i.reloader.Reload(context.WithoutCancel(ctx)); err != nil {
		log.Printf("Injector: agent reload failed: %v", err)
	}
}

// RemoveInjection deletes the placed files, cache entry, catalog entry and
// ledger record for id. Unknown ids are not an error.
func (i *Injector) RemoveInjection(ctx context.Context, id string) error {
	i.opMu.Lock()
	defer i.opMu.Unlock()

	err := i.removeInjection(id)
	// placed files may already be gone even when the catalog update failed
	if !errors.Is(err, apperr.ErrUnsupportedInput) {
		i.reload(ctx)
	}
	if err == nil {
		i.resetIfActive(id)
	}
	observe("remove", err)
	return err
}

func (i *Injector) removeInjection(id string) error {
	if err := media.ValidateID(id); err != nil {
		return apperr.UnsupportedInput("invalid identifier", err)
	}

	rec, _ := i.ledger.Get(id)
	if err := i.placement.Delete(id, rec.VideoPath, rec.ThumbnailPath); err != nil {
		log.Printf("Injector: %s: %v", id, err)
	}
	if err := i.converter.Evict(id); err != nil {
		log.Printf("Injector: failed to evict cache for %s: %v", id, err)
	}
	if err := i.catalog.Remove(id); err != nil {
		return err
	}
	if i.ledger.Delete(id) {
		if err := i.ledger.Save(); err != nil {
			return err
		}
		log.Printf("Injector: removed %s", id)
	}
	InjectedAssets.Set(float64(i.ledger.Count()))
	return nil
}

// RemoveAllInjections removes every recorded injection. A failure for one
// record does not stop the others; all failures are returned joined.
func (i *Injector) RemoveAllInjections(ctx context.Context) error {
	i.opMu.Lock()
	defer i.opMu.Unlock()

	var errs []error
	for _, rec := range i.ledger.List() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := i.removeInjection(rec.ID); err != nil {
			log.Printf("Injector: failed to remove %s: %v", rec.ID, err)
			errs = append(errs, fmt.Errorf("remove %s: %w", rec.ID, err))
		}
	}
	i.reload(ctx)
	i.setStatus(Status{State: StateIdle})

	err := errors.Join(errs...)
	observe("remove_all", err)
	return err
}

// RestoreOriginalManifest puts the pristine catalog back and deletes every
// file this application placed.
func (i *Injector) RestoreOriginalManifest(ctx context.Context) error {
	i.opMu.Lock()
	defer i.opMu.Unlock()

	err := i.restore(ctx)
	observe("restore", err)
	return err
}

func (i *Injector) restore(ctx context.Context) error {
	if err := i.catalog.Restore(); err != nil {
		return err
	}
	i.reload(ctx)

	for _, rec := range i.ledger.List() {
		if err := i.placement.Delete(rec.ID, rec.VideoPath, rec.ThumbnailPath); err != nil {
			log.Printf("Injector: %s: %v", rec.ID, err)
		}
		if err := i.converter.Evict(rec.ID); err != nil {
			log.Printf("Injector: failed to evict cache for %s: %v", rec.ID, err)
		}
	}
	i.ledger.Clear()
	InjectedAssets.Set(0)
	i.setStatus(Status{State: StateIdle})
	if err := i.ledger.Save(); err != nil {
		return err
	}
	log.Print("Injector: original catalog restored")
	return nil
}

// IsInjected reports whether the ledger records id.
func (i *Injector) IsInjected(id string) bool {
	return i.ledger.Contains(id)
}

// Injections returns the ledger records, oldest first.
func (i *Injector) Injections() []ledger.Record {
	return i.ledger.List()
}
