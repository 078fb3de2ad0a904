package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type RunKind string

const (
	RunKindExtract RunKind = "extract"
	RunKindScore   RunKind = "score"
)

// Run is one pipeline invocation (an extraction batch or a scoring pass).
type Run struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Kind           RunKind    `json:"kind" db:"kind"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	FinishedAt     *time.Time `json:"finished_at" db:"finished_at"`
	Status         RunStatus  `json:"status" db:"status"`
	ListingsSeen   int        `json:"listings_seen" db:"listings_seen"`
	ListingsSaved  int        `json:"listings_saved" db:"listings_saved"`
	ListingsEmpty  int        `json:"listings_empty" db:"listings_empty"`
	CommuteMissing int        `json:"commute_missing" db:"commute_missing"`
	ErrorsCount    int        `json:"errors_count" db:"errors_count"`
}

// NewRun starts a run record of the given kind.
func NewRun(kind RunKind) *Run {
	return &Run{
		ID:        uuid.New(),
		Kind:      kind,
		StartedAt: time.Now(),
		Status:    RunStatusRunning,
	}
}

// Finish stamps the run with its end time and final status.
func (r *Run) Finish(status RunStatus) {
	now := time.Now()
	r.FinishedAt = &now
	r.Status = status
}
