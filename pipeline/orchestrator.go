// Package pipeline runs batch extraction and scoring over stored listings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"rent591/extract"
	"rent591/logging"
	"rent591/models"
	"rent591/scoring"
	"rent591/storage"
)

// ErrBusy is returned when a scoring pass is already running.
var ErrBusy = errors.New("pipeline: scoring already in progress")

// PageSource fetches raw listing pages.
type PageSource interface {
	FetchListing(ctx context.Context, id string) (string, error)
}

// PageCache holds raw pages between runs.
type PageCache interface {
	Get(ctx context.Context, id string) (string, bool, error)
	Set(ctx context.Context, id, html string) error
}

type Orchestrator struct {
	listings  storage.ListingStore
	runs      storage.RunStore
	extractor *extract.Extractor
	engine    *scoring.Engine
	workers   int

	fetcher PageSource
	cache   PageCache
	delay   time.Duration

	scoring sync.Mutex
	// writes serializes every pass that saves listings, so a scoring pass
	// never re-saves a copy older than a concurrent extraction.
	writes sync.Mutex
}

func NewOrchestrator(listings storage.ListingStore, runs storage.RunStore, extractor *extract.Extractor, engine *scoring.Engine, workers int) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		listings:  listings,
		runs:      runs,
		extractor: extractor,
		engine:    engine,
		workers:   workers,
	}
}

// SetFetcher enables network extraction. cache may be nil. delay is waited
// after every network fetch.
func (o *Orchestrator) SetFetcher(fetcher PageSource, cache PageCache, delay time.Duration) {
	o.fetcher = fetcher
	o.cache = cache
	o.delay = delay
}

// ExtractIDs fetches, extracts and stores each listing. A failing listing is
// logged and counted; it never stops the batch.
func (o *Orchestrator) ExtractIDs(ctx context.Context, ids []string) (*models.Run, error) {
	if o.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}
	return o.extractBatch(ctx, ids, o.loadPage, false)
}

// ExtractDir extracts every <id>.html file in dir.
func (o *Orchestrator) ExtractDir(ctx context.Context, dir string) (*models.Run, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, err
	}

	paths := make(map[string]string, len(files))
	ids := make([]string, 0, len(files))
	for _, f := range files {
		id := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		paths[id] = f
		ids = append(ids, id)
	}

	return o.extractBatch(ctx, ids, func(_ context.Context, id string) (string, error) {
		data, err := os.ReadFile(paths[id])
		return string(data), err
	}, false)
}

// ExtractPages extracts pages the caller already holds, keyed by listing ID.
// The listings are scored before saving so a re-fetched listing keeps its
// rank and commute.
func (o *Orchestrator) ExtractPages(ctx context.Context, pages map[string]string) (*models.Run, error) {
	ids := make([]string, 0, len(pages))
	for id := range pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return o.extractBatch(ctx, ids, func(_ context.Context, id string) (string, error) {
		return pages[id], nil
	}, true)
}

// Touch marks a listing as just fetched, and as delisted when gone is set.
func (o *Orchestrator) Touch(ctx context.Context, id string, gone bool) error {
	o.writes.Lock()
	defer o.writes.Unlock()

	l, err := o.listings.GetListing(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	l.FetchedAt = &now
	if gone {
		l.DelistedAt = &now
	}
	return o.listings.UpsertListing(ctx, l)
}

type pageLoader func(ctx context.Context, id string) (string, error)

func (o *Orchestrator) extractBatch(ctx context.Context, ids []string, load pageLoader, score bool) (*models.Run, error) {
	o.writes.Lock()
	defer o.writes.Unlock()

	run := models.NewRun(models.RunKindExtract)
	if err := o.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Starting extraction of %d listings", len(ids)), "")

	var mu sync.Mutex
	count := func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			count(func() { run.ListingsSeen++ })

			empty, err := o.extractOne(gctx, run.ID, id, load, score)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				o.log(run.ID, models.LogLevelError, fmt.Sprintf("Extract error: %v", err), id)
				count(func() { run.ErrorsCount++ })
				return nil
			}
			count(func() {
				run.ListingsSaved++
				if empty {
					run.ListingsEmpty++
				}
			})
			return nil
		})
	}

	err := g.Wait()
	status := models.RunStatusCompleted
	if err != nil {
		status = models.RunStatusFailed
	}
	o.finish(run, status)

	return run, err
}

// extractOne reports empty when the listing yielded neither price nor size.
func (o *Orchestrator) extractOne(ctx context.Context, runID uuid.UUID, id string, load pageLoader, score bool) (bool, error) {
	html, err := load(ctx, id)
	if err != nil {
		return false, err
	}

	l, err := o.extractor.Extract(html, id)
	if err != nil {
		return false, err
	}
	fetched := time.Now().UTC()
	l.FetchedAt = &fetched

	empty := !l.IsUsable()
	if empty {
		o.log(runID, models.LogLevelWarn, "No price or size found", id)
	}
	if l.PriceConfidence == models.PriceConfidenceLow {
		o.log(runID, models.LogLevelDebug, "Price taken from bare digits", id)
	}
	if score {
		o.engine.Score(l)
	}

	if err := o.listings.UpsertListing(ctx, l); err != nil {
		return false, fmt.Errorf("save: %w", err)
	}
	return empty, nil
}

// loadPage reads through the cache to the network.
func (o *Orchestrator) loadPage(ctx context.Context, id string) (string, error) {
	if o.cache != nil {
		html, ok, err := o.cache.Get(ctx, id)
		if err != nil {
			logging.Warnf("page cache: %v", err)
		} else if ok {
			return html, nil
		}
	}

	html, err := o.fetcher.FetchListing(ctx, id)
	if err != nil {
		return "", err
	}

	if o.cache != nil {
		if err := o.cache.Set(ctx, id, html); err != nil {
			logging.Warnf("page cache: %v", err)
		}
	}

	if o.delay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(o.delay):
		}
	}
	return html, nil
}

// ScoreAll enriches and scores every stored listing, saves the scores and
// returns the listings ranked.
func (o *Orchestrator) ScoreAll(ctx context.Context) ([]*models.Listing, *models.Run, error) {
	if !o.scoring.TryLock() {
		return nil, nil, ErrBusy
	}
	defer o.scoring.Unlock()
	o.writes.Lock()
	defer o.writes.Unlock()

	run := models.NewRun(models.RunKindScore)
	if err := o.runs.CreateRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("create run: %w", err)
	}

	listings, err := o.listings.ListListings(ctx, storage.ListFilter{})
	if err != nil {
		o.log(run.ID, models.LogLevelError, fmt.Sprintf("Load listings: %v", err), "")
		o.finish(run, models.RunStatusFailed)
		return nil, run, err
	}

	run.ListingsSeen = len(listings)
	o.engine.Rank(listings)

	for _, l := range listings {
		if l.CommuteTimeMin == nil {
			run.CommuteMissing++
			o.log(run.ID, models.LogLevelDebug, "No commute estimate", l.ID)
		}
		if err := o.listings.UpsertListing(ctx, l); err != nil {
			if ctx.Err() != nil {
				o.finish(run, models.RunStatusFailed)
				return nil, run, ctx.Err()
			}
			o.log(run.ID, models.LogLevelError, fmt.Sprintf("Save score: %v", err), l.ID)
			run.ErrorsCount++
			continue
		}
		run.ListingsSaved++
	}

	o.finish(run, models.RunStatusCompleted)
	return listings, run, nil
}

func (o *Orchestrator) finish(run *models.Run, status models.RunStatus) {
	run.Finish(status)
	o.log(run.ID, models.LogLevelInfo,
		fmt.Sprintf("%s run %s: %d seen, %d saved, %d empty, %d without commute, %d errors",
			run.Kind, status, run.ListingsSeen, run.ListingsSaved, run.ListingsEmpty, run.CommuteMissing, run.ErrorsCount), "")

	// Recorded even when ctx was cancelled.
	if err := o.runs.FinishRun(context.Background(), run); err != nil {
		logging.Errorf("finish run %s: %v", run.ID, err)
	}
}

func (o *Orchestrator) log(runID uuid.UUID, level models.LogLevel, message, listingID string) {
	if listingID != "" {
		logging.Logf(logging.ParseLevel(string(level)), "%s: %s", listingID, message)
	} else {
		logging.Logf(logging.ParseLevel(string(level)), "%s", message)
	}
	if err := o.runs.Log(context.Background(), &runID, level, message, listingID); err != nil {
		logging.Errorf("store log: %v", err)
	}
}
