package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rent591/models"
)

// PostgresStore keeps listings in a shared Postgres database. The listing is
// stored whole in a jsonb column; district, rent and score are copied out for
// filtering and ordering.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id TEXT PRIMARY KEY,
			district TEXT,
			base_rent_nt INTEGER,
			score DOUBLE PRECISION,
			data JSONB NOT NULL,
			fetched_at TIMESTAMPTZ,
			delisted_at TIMESTAMPTZ,
			first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_listings_district ON listings (lower(district));
		CREATE INDEX IF NOT EXISTS idx_listings_score ON listings (score DESC NULLS LAST);
		CREATE INDEX IF NOT EXISTS idx_listings_fetched ON listings (fetched_at NULLS FIRST);
	`)
	return err
}

// =============================================================================
// Listings
// =============================================================================

func (s *PostgresStore) UpsertListing(ctx context.Context, l *models.Listing) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal listing %s: %w", l.ID, err)
	}

	query := `
		INSERT INTO listings (id, district, base_rent_nt, score, data, fetched_at, delisted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			district = EXCLUDED.district,
			base_rent_nt = EXCLUDED.base_rent_nt,
			score = EXCLUDED.score,
			data = EXCLUDED.data,
			fetched_at = EXCLUDED.fetched_at,
			delisted_at = EXCLUDED.delisted_at,
			updated_at = NOW()`

	_, err = s.pool.Exec(ctx, query, l.ID, l.District, l.BaseRentNT, l.Score, data, l.FetchedAt, l.DelistedAt)
	return err
}

func (s *PostgresStore) StaleListingIDs(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM listings
		WHERE delisted_at IS NULL AND (fetched_at IS NULL OR fetched_at < $1)
		ORDER BY fetched_at NULLS FIRST, id
		LIMIT $2`, olderThan, limit)
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

func (s *PostgresStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM listings WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeListing(data)
}

func (s *PostgresStore) ListListings(ctx context.Context, f ListFilter) ([]*models.Listing, error) {
	query := `SELECT data FROM listings`
	var args []any
	if f.District != "" {
		args = append(args, f.District)
		query += ` WHERE lower(district) = lower($1)`
	}
	query += ` ORDER BY score DESC NULLS LAST, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		l, err := decodeListing(data)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
