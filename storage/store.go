package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rent591/models"
)

// ErrNotFound is returned when a listing or run does not exist.
var ErrNotFound = errors.New("storage: not found")

// ListFilter narrows ListListings. A zero Limit means no limit.
type ListFilter struct {
	District string
	Limit    int
}

// ListingStore persists listings in their JSON interchange shape. Listings are
// returned ranked by score, unscored last.
type ListingStore interface {
	UpsertListing(ctx context.Context, l *models.Listing) error
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	ListListings(ctx context.Context, f ListFilter) ([]*models.Listing, error)
	StaleListingIDs(ctx context.Context, olderThan time.Time, limit int) ([]string, error)
	Close() error
}

// RunStore records pipeline runs and their log lines.
type RunStore interface {
	CreateRun(ctx context.Context, run *models.Run) error
	FinishRun(ctx context.Context, run *models.Run) error
	Log(ctx context.Context, runID *uuid.UUID, level models.LogLevel, message, listingID string) error
	RecentRuns(ctx context.Context, limit int) ([]models.Run, error)
}
