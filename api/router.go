package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter wires the read API. Every route shares one limit of 60 requests
// per minute per IP.
func NewRouter(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/healthz", h.Health)
	r.Get("/listings", h.ListListings)
	r.Get("/listings/{id}", h.GetListing)
	r.Get("/listings/{id}/breakdown", h.GetBreakdown)
	r.Get("/commute", h.EstimateCommute)
	r.Post("/score", h.Score)

	return r
}
