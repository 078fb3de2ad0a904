package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rent591/api"
	"rent591/cache"
	"rent591/config"
	"rent591/extract"
	"rent591/httputil"
	"rent591/logging"
	"rent591/models"
	"rent591/pipeline"
	"rent591/scheduler"
	"rent591/scoring"
	"rent591/storage"
	"rent591/transit"
	"rent591/workers"
)

var (
	idsFlag  = flag.String("ids", "", "Comma-separated listing IDs to fetch and extract")
	idsFile  = flag.String("ids-file", "", "JSON file with listing IDs to fetch and extract")
	htmlDir  = flag.String("html-dir", "", "Extract saved <id>.html pages from this directory")
	scoreNow = flag.Bool("score", false, "Score all stored listings")
	top      = flag.Int("top", 10, "Number of listings to print")
	serve    = flag.Bool("serve", false, "Run the API and scheduler after any one-shot work")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogFile)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	log.Println("Starting rent591...")
	ref := cfg.Search.Reference
	logging.Infof("Reference: %s (%s), weights %+v", ref.Name, ref.Station, cfg.Search.Weights)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// SQLite always holds runs and logs, and listings unless Postgres is set
	sqliteStore, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqliteStore.Close()
	logging.Infof("SQLite database: %s", cfg.Storage.DBPath)

	var listings interface {
		storage.ListingStore
		Ping(ctx context.Context) error
	} = sqliteStore
	if cfg.Storage.DatabaseURL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		listings = pgStore
		logging.Infof("Listings stored in Postgres: %s", redact(cfg.Storage.DatabaseURL))
	}

	var pageCache *cache.PageCache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logging.Warnf("Redis unavailable, page cache disabled: %v", err)
		} else {
			defer client.Close()
			pageCache = cache.NewPageCache(client)
			logging.Infof("Page cache: %s", redact(cfg.RedisURL))
		}
	}

	graph := transit.TaipeiGraph()
	estimator := transit.NewEstimator(graph, ref)
	if _, _, ok := graph.Lookup(ref.Station); !ok {
		logging.Warnf("Reference station %q is not in the station table; MRT estimates disabled", ref.Station)
	}
	engine := scoring.NewEngine(estimator, cfg.Search.Weights)
	extractor := extract.New(cfg.BaseURL, cfg.Search.Rates)

	orch := pipeline.NewOrchestrator(listings, sqliteStore, extractor, engine, cfg.Workers)
	fetcher := httputil.NewFetcher(cfg.BaseURL, cfg.Fetch.Retries, time.Duration(cfg.Fetch.DelayMS)*time.Millisecond, cfg.Fetch.Timeout)
	if pageCache != nil {
		orch.SetFetcher(fetcher, pageCache, time.Duration(cfg.Fetch.DelayMS)*time.Millisecond)
	} else {
		orch.SetFetcher(fetcher, nil, time.Duration(cfg.Fetch.DelayMS)*time.Millisecond)
	}

	oneShot, err := runOneShot(ctx, orch, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if oneShot && !*serve {
		return
	}

	// Daemon mode
	sched := scheduler.New(cfg.Scheduler, orch)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	if cfg.Refresh.Interval > 0 {
		refresher := workers.NewRefreshWorker(listings, fetcher, orch, time.Duration(cfg.Fetch.DelayMS)*time.Millisecond)
		go refresher.Run(ctx, cfg.Refresh.MaxAge, cfg.Refresh.Batch, cfg.Refresh.Interval)
		logging.Infof("Refresh worker started: every %s, listings older than %s", cfg.Refresh.Interval, cfg.Refresh.MaxAge)
	}

	var cachePinger interface{ Ping(context.Context) error }
	if pageCache != nil {
		cachePinger = pageCache
	}
	handlers := api.NewHandlers(listings, engine, estimator, orch, listings, cachePinger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Infof("API listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errorf("HTTP server: %v", err)
			cancel()
		}
	}()

	log.Println("Daemon running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Println("Shutting down...")
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("HTTP shutdown: %v", err)
	}
	log.Println("Goodbye!")
}

// runOneShot handles the extraction and scoring flags. It reports whether any
// of them was given.
func runOneShot(ctx context.Context, orch *pipeline.Orchestrator, cfg *config.Config) (bool, error) {
	var ids []string
	if *idsFlag != "" {
		ids = append(ids, pipeline.SplitIDs(*idsFlag)...)
	}
	if *idsFile != "" {
		fromFile, err := pipeline.LoadIDs(*idsFile)
		if err != nil {
			return false, err
		}
		ids = append(ids, fromFile...)
	}

	ran := false
	if len(ids) > 0 {
		ran = true
		logging.Infof("Extracting %d listings...", len(ids))
		if _, err := orch.ExtractIDs(ctx, ids); err != nil {
			return ran, err
		}
	}
	if *htmlDir != "" {
		ran = true
		logging.Infof("Extracting saved pages from %s...", *htmlDir)
		if _, err := orch.ExtractDir(ctx, *htmlDir); err != nil {
			return ran, err
		}
	}

	if !*scoreNow {
		return ran, nil
	}

	ranked, _, err := orch.ScoreAll(ctx)
	if err != nil {
		return true, err
	}

	var shown []*models.Listing
	for _, l := range ranked {
		if !l.IsDelisted() && cfg.Search.Filters.Match(l) {
			shown = append(shown, l)
		}
	}
	logging.Infof("Scored %d listings, %d match the search filters", len(ranked), len(shown))
	return true, scoring.WriteSummary(os.Stdout, shown, *top)
}

// redact hides the password in a connection URL for logging.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable URL)"
	}
	return u.Redacted()
}
