package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"rent591/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		district TEXT,
		base_rent_nt INTEGER,
		score REAL,
		data JSON NOT NULL,
		fetched_at INTEGER,
		delisted_at INTEGER,
		first_seen_at DATETIME,
		updated_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS pipeline_runs (
		id TEXT PRIMARY KEY,
		kind TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		listings_seen INTEGER DEFAULT 0,
		listings_saved INTEGER DEFAULT 0,
		listings_empty INTEGER DEFAULT 0,
		commute_missing INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS pipeline_logs (
		id INTEGER PRIMARY KEY,
		run_id TEXT,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		listing_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_listings_district ON listings(district);
	CREATE INDEX IF NOT EXISTS idx_listings_score ON listings(score);
	CREATE INDEX IF NOT EXISTS idx_listings_fetched ON listings(fetched_at);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON pipeline_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON pipeline_runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// Listings
// =============================================================================

func (s *SQLiteStore) UpsertListing(ctx context.Context, l *models.Listing) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal listing %s: %w", l.ID, err)
	}

	var fetched, delisted any
	if l.FetchedAt != nil {
		fetched = l.FetchedAt.Unix()
	}
	if l.DelistedAt != nil {
		delisted = l.DelistedAt.Unix()
	}

	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO listings (id, district, base_rent_nt, score, data, fetched_at, delisted_at, first_seen_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			district = excluded.district,
			base_rent_nt = excluded.base_rent_nt,
			score = excluded.score,
			data = excluded.data,
			fetched_at = excluded.fetched_at,
			delisted_at = excluded.delisted_at,
			updated_at = excluded.updated_at`,
		l.ID, l.District, l.BaseRentNT, l.Score, string(data), fetched, delisted, now, now)
	return err
}

// StaleListingIDs returns live listings last fetched before olderThan, oldest
// first. Listings never fetched come first.
func (s *SQLiteStore) StaleListingIDs(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM listings
		WHERE delisted_at IS NULL AND (fetched_at IS NULL OR fetched_at < ?)
		ORDER BY fetched_at IS NOT NULL, fetched_at, id
		LIMIT ?`, olderThan.Unix(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM listings WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeListing([]byte(data))
}

func (s *SQLiteStore) ListListings(ctx context.Context, f ListFilter) ([]*models.Listing, error) {
	query := `SELECT data FROM listings`
	var args []any
	if f.District != "" {
		query += ` WHERE district = ? COLLATE NOCASE`
		args = append(args, f.District)
	}
	query += ` ORDER BY score IS NULL, score DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		l, err := decodeListing([]byte(data))
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *SQLiteStore) CountListings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n)
	return n, err
}

func decodeListing(data []byte) (*models.Listing, error) {
	var l models.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	if l.ImageURLs == nil {
		l.ImageURLs = []string{}
	}
	return &l, nil
}

// =============================================================================
// Runs and logs
// =============================================================================

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, kind, started_at, status)
		VALUES (?, ?, ?, ?)`,
		run.ID, run.Kind, run.StartedAt, run.Status)
	return err
}

func (s *SQLiteStore) FinishRun(ctx context.Context, run *models.Run) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE pipeline_runs SET finished_at = ?, status = ?, listings_seen = ?, listings_saved = ?,
			listings_empty = ?, commute_missing = ?, errors_count = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.ListingsSeen, run.ListingsSaved,
		run.ListingsEmpty, run.CommuteMissing, run.ErrorsCount, run.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Log(ctx context.Context, runID *uuid.UUID, level models.LogLevel, message, listingID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_logs (run_id, timestamp, level, message, listing_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, listingID)
	return err
}

func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]models.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, started_at, finished_at, status, listings_seen, listings_saved,
			listings_empty, commute_missing, errors_count
		FROM pipeline_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var r models.Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Kind, &r.StartedAt, &finished, &r.Status, &r.ListingsSeen,
			&r.ListingsSaved, &r.ListingsEmpty, &r.CommuteMissing, &r.ErrorsCount); err != nil {
			return nil, err
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) RunLogs(ctx context.Context, runID uuid.UUID) ([]models.RunLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, timestamp, level, message, COALESCE(listing_id, '')
		FROM pipeline_logs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.RunLog
	for rows.Next() {
		var entry models.RunLog
		var rid uuid.NullUUID
		if err := rows.Scan(&entry.ID, &rid, &entry.Timestamp, &entry.Level, &entry.Message, &entry.ListingID); err != nil {
			return nil, err
		}
		if rid.Valid {
			entry.RunID = &rid.UUID
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
