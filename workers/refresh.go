package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rent591/httputil"
	"rent591/logging"
	"rent591/models"
	"rent591/pipeline"
)

// RefreshStore is the listing storage the refresh worker needs.
type RefreshStore interface {
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	StaleListingIDs(ctx context.Context, olderThan time.Time, limit int) ([]string, error)
}

// PageExtractor stores listings from pages already fetched. Touch re-saves a
// listing that could not be refreshed so it moves to the back of the queue.
type PageExtractor interface {
	ExtractPages(ctx context.Context, pages map[string]string) (*models.Run, error)
	Touch(ctx context.Context, id string, gone bool) error
}

// RefreshWorker re-fetches listings whose page is older than a cutoff. Gone
// listings are marked delisted; live ones are re-extracted so price changes
// land.
type RefreshWorker struct {
	store     RefreshStore
	source    pipeline.PageSource
	extractor PageExtractor
	delay     time.Duration
	triggerCh chan struct{}
}

// BatchResult counts one refresh pass.
type BatchResult struct {
	Checked      int
	Delisted     int
	PriceChanges int
	Errors       int
}

func NewRefreshWorker(store RefreshStore, source pipeline.PageSource, extractor PageExtractor, delay time.Duration) *RefreshWorker {
	return &RefreshWorker{
		store:     store,
		source:    source,
		extractor: extractor,
		delay:     delay,
		triggerCh: make(chan struct{}, 1),
	}
}

// Trigger causes the worker to run immediately
func (w *RefreshWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

func (w *RefreshWorker) Run(ctx context.Context, maxAge time.Duration, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Infof("Refresh worker stopping")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx, maxAge, batchSize)
		case <-w.triggerCh:
			logging.Infof("Refresh worker triggered manually")
			w.ProcessBatch(ctx, maxAge, batchSize)
		}
	}
}

// ProcessBatch refreshes up to batchSize listings fetched more than maxAge ago.
func (w *RefreshWorker) ProcessBatch(ctx context.Context, maxAge time.Duration, batchSize int) BatchResult {
	var res BatchResult

	ids, err := w.store.StaleListingIDs(ctx, time.Now().Add(-maxAge), batchSize)
	if err != nil {
		logging.Errorf("Refresh: query error: %v", err)
		return res
	}
	if len(ids) == 0 {
		return res
	}

	logging.Infof("Refresh: checking %d stale listings", len(ids))

	pages := make(map[string]string, len(ids))
	oldRent := make(map[string]*int, len(ids))
	for i, id := range ids {
		if ctx.Err() != nil {
			return res
		}
		if i > 0 && w.delay > 0 {
			select {
			case <-ctx.Done():
				return res
			case <-time.After(w.delay):
			}
		}

		old, err := w.store.GetListing(ctx, id)
		if err != nil {
			logging.Errorf("Refresh: load %s: %v", id, err)
			res.Errors++
			continue
		}

		html, err := w.source.FetchListing(ctx, id)
		res.Checked++
		switch {
		case errors.Is(err, httputil.ErrNotFound):
			if err := w.extractor.Touch(ctx, id, true); err != nil {
				logging.Errorf("Refresh: mark delisted %s: %v", id, err)
				res.Errors++
				continue
			}
			logging.Infof("Refresh: listing delisted: %s", old.URL)
			res.Delisted++
		case err != nil:
			logging.Warnf("Refresh: error checking %s: %v", id, err)
			res.Errors++
			if err := w.extractor.Touch(ctx, id, false); err != nil {
				logging.Errorf("Refresh: touch %s: %v", id, err)
			}
		default:
			pages[id] = html
			oldRent[id] = old.BaseRentNT
		}
	}

	if len(pages) > 0 {
		if _, err := w.extractor.ExtractPages(ctx, pages); err != nil {
			logging.Errorf("Refresh: extract: %v", err)
		}
		for id, before := range oldRent {
			l, err := w.store.GetListing(ctx, id)
			if err != nil || before == nil || l.BaseRentNT == nil || *before == *l.BaseRentNT {
				continue
			}
			logging.Infof("Refresh: price change %s: NT$%d -> NT$%d", id, *before, *l.BaseRentNT)
			res.PriceChanges++
		}
	}

	if res.Delisted > 0 || res.PriceChanges > 0 || res.Errors > 0 {
		msg := fmt.Sprintf("Refresh: checked %d", res.Checked)
		if res.Delisted > 0 {
			msg += fmt.Sprintf(", %d delisted", res.Delisted)
		}
		if res.PriceChanges > 0 {
			msg += fmt.Sprintf(", %d price changes", res.PriceChanges)
		}
		if res.Errors > 0 {
			msg += fmt.Sprintf(", %d errors", res.Errors)
		}
		logging.Infof("%s", msg)
	}
	return res
}
