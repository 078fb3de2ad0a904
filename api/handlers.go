package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rent591/logging"
	"rent591/models"
	"rent591/pipeline"
	"rent591/scoring"
	"rent591/storage"
	"rent591/transit"
)

const maxListLimit = 500

type Handlers struct {
	listings  ListingReader
	engine    *scoring.Engine
	estimator *transit.Estimator
	scorer    Scorer
	db        pinger
	cache     pinger
}

// NewHandlers builds the handler set. scorer and cache may be nil; POST /score
// then answers 503 and the health check reports the cache as disabled.
func NewHandlers(listings ListingReader, engine *scoring.Engine, estimator *transit.Estimator, scorer Scorer, db, cache pinger) *Handlers {
	return &Handlers{
		listings:  listings,
		engine:    engine,
		estimator: estimator,
		scorer:    scorer,
		db:        db,
		cache:     cache,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warnf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ListListings handles GET /listings?limit=N&district=X.
func (h *Handlers) ListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := storage.ListFilter{District: q.Get("district"), Limit: 50}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = min(n, maxListLimit)
	}

	listings, err := h.listings.ListListings(r.Context(), f)
	if err != nil {
		logging.Errorf("list listings: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if listings == nil {
		listings = []*models.Listing{}
	}
	writeJSON(w, http.StatusOK, listings)
}

// GetListing handles GET /listings/{id}.
func (h *Handlers) GetListing(w http.ResponseWriter, r *http.Request) {
	l, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type breakdownResponse struct {
	ID string `json:"id"`
	scoring.Breakdown
}

// GetBreakdown handles GET /listings/{id}/breakdown. It evaluates the stored
// listing as is and never re-estimates the commute.
func (h *Handlers) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	l, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, breakdownResponse{ID: l.ID, Breakdown: h.engine.Evaluate(l)})
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*models.Listing, bool) {
	id := chi.URLParam(r, "id")
	l, err := h.listings.GetListing(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "listing not found")
		return nil, false
	}
	if err != nil {
		logging.Errorf("get listing %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return l, true
}

// EstimateCommute handles GET /commute?q=<transit text>&lat=&lng=.
// lat and lng must be given together.
func (h *Handlers) EstimateCommute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := q.Get("q")

	var from *transit.Coord
	latS, lngS := q.Get("lat"), q.Get("lng")
	if latS != "" || lngS != "" {
		lat, err1 := strconv.ParseFloat(latS, 64)
		lng, err2 := strconv.ParseFloat(lngS, 64)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "lat and lng must both be numbers")
			return
		}
		if !models.ValidCoords(lat, lng) {
			writeError(w, http.StatusBadRequest, "lat must be within ±90 and lng within ±180")
			return
		}
		from = &transit.Coord{Lat: lat, Lon: lng}
	}
	if text == "" && from == nil {
		writeError(w, http.StatusBadRequest, "q or lat/lng is required")
		return
	}

	writeJSON(w, http.StatusOK, h.estimator.Estimate(text, from))
}

type scoreResponse struct {
	RunID          string   `json:"run_id"`
	Listings       int      `json:"listings"`
	CommuteMissing int      `json:"commute_missing"`
	Errors         int      `json:"errors"`
	TopScore       *float64 `json:"top_score"`
}

// Score handles POST /score, running one scoring pass synchronously.
func (h *Handlers) Score(w http.ResponseWriter, r *http.Request) {
	if h.scorer == nil {
		writeError(w, http.StatusServiceUnavailable, "scoring not available")
		return
	}

	ranked, run, err := h.scorer.ScoreAll(r.Context())
	if errors.Is(err, pipeline.ErrBusy) {
		writeError(w, http.StatusConflict, "scoring already in progress")
		return
	}
	if err != nil {
		logging.Errorf("score: %v", err)
		writeError(w, http.StatusInternalServerError, "scoring failed")
		return
	}

	resp := scoreResponse{
		RunID:          run.ID.String(),
		Listings:       run.ListingsSeen,
		CommuteMissing: run.CommuteMissing,
		Errors:         run.ErrorsCount,
	}
	if len(ranked) > 0 {
		resp.TopScore = ranked[0].Score
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /healthz. 200 when the database answers, 503 otherwise.
// A failing cache only degrades the status text.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "ok"
	dbStatus := "ok"
	cacheStatus := "disabled"

	if err := h.db.Ping(ctx); err != nil {
		logging.Errorf("health check: db ping failed: %v", err)
		dbStatus = "error"
		overall = "down"
		status = http.StatusServiceUnavailable
	}

	if h.cache != nil {
		cacheStatus = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			logging.Warnf("health check: cache ping failed: %v", err)
			cacheStatus = "error"
			if status == http.StatusOK {
				overall = "degraded"
			}
		}
	}

	writeJSON(w, status, map[string]string{
		"status": overall,
		"db":     dbStatus,
		"cache":  cacheStatus,
	})
}
