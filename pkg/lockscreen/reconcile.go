package lockscreen

import (
	"context"

	"github.com/dixieflatline76/SpiceLock/pkg/catalog"
	"github.com/dixieflatline76/SpiceLock/pkg/ledger"
	"github.com/dixieflatline76/SpiceLock/util/log"
	"golang.org/x/sync/errgroup"
)

// Report compares the ledger with the custom entries in the catalog.
type Report struct {
	Orphaned   []string // in the catalog, not in the ledger
	Missing    []string // in the ledger, not in the catalog
	Consistent []string // in both
}

// InSync reports whether ledger and catalog agree.
func (r Report) InSync() bool {
	return len(r.Orphaned) == 0 && len(r.Missing) == 0
}

// Reconcile loads the persisted ledger and the catalog independently and
// reports where they disagree. Nothing is modified.
func (i *Injector) Reconcile(ctx context.Context) (Report, error) {
	i.opMu.Lock()
	defer i.opMu.Unlock()

	report, _, err := i.reconcile(ctx)
	observe("reconcile", err)
	return report, err
}

func (i *Injector) reconcile(ctx context.Context) (Report, map[string]catalog.CustomEntry, error) {
	var records []ledger.Record
	var entries []catalog.CustomEntry

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		persisted := ledger.New(i.ledger.Path())
		persisted.Load()
		records = persisted.List()
		return ctx.Err()
	})
	g.Go(func() error {
		var err error
		entries, err = i.catalog.ListCustomEntries()
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, nil, err
	}

	inLedger := make(map[string]bool, len(records))
	for _, r := range records {
		inLedger[r.ID] = true
	}
	inCatalog := make(map[string]catalog.CustomEntry, len(entries))
	report := Report{}
	for _, e := range entries {
		inCatalog[e.ID] = e
		if !inLedger[e.ID] {
			report.Orphaned = append(report.Orphaned, e.ID)
		}
	}
	for _, r := range records {
		if _, ok := inCatalog[r.ID]; ok {
			report.Consistent = append(report.Consistent, r.ID)
		} else {
			report.Missing = append(report.Missing, r.ID)
		}
	}

	if !report.InSync() {
		log.Printf("Injector: ledger and catalog disagree: %d orphaned, %d missing", len(report.Orphaned), len(report.Missing))
	}
	return report, inCatalog, nil
}

// Adopt records orphaned catalog entries in the ledger so they can be removed
// like any other injection. It returns the adopted ids.
func (i *Injector) Adopt(ctx context.Context) ([]string, error) {
	i.opMu.Lock()
	defer i.opMu.Unlock()

	adopted, err := i.adopt(ctx)
	observe("adopt", err)
	return adopted, err
}

func (i *Injector) adopt(ctx context.Context) ([]string, error) {
	report, entries, err := i.reconcile(ctx)
	if err != nil {
		return nil, err
	}
	if len(report.Orphaned) == 0 {
		return nil, nil
	}

	adopted := make([]string, 0, len(report.Orphaned))
	for _, id := range report.Orphaned {
		video, err := i.placement.VideoPath(id)
		if err != nil {
			log.Printf("Injector: not adopting %q: %v", id, err)
			continue
		}
		thumb, _ := i.placement.ThumbnailPath(id)
		i.ledger.Upsert(ledger.Record{
			ID:            id,
			DisplayName:   entries[id].DisplayName,
			VideoPath:     video,
			ThumbnailPath: thumb,
			InjectedAt:    i.now(),
		})
		adopted = append(adopted, id)
	}
	if err := i.ledger.Save(); err != nil {
		return nil, err
	}
	InjectedAssets.Set(float64(i.ledger.Count()))
	log.Printf("Injector: adopted %d orphaned entries", len(adopted))
	return adopted, nil
}
