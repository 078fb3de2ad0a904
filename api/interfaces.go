package api

import (
	"context"

	"rent591/models"
	"rent591/storage"
)

// ListingReader is the storage the handlers read from.
type ListingReader interface {
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	ListListings(ctx context.Context, f storage.ListFilter) ([]*models.Listing, error)
}

// Scorer runs a scoring pass over the stored listings.
type Scorer interface {
	ScoreAll(ctx context.Context) ([]*models.Listing, *models.Run, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}
