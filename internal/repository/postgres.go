package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/geocsv/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDatabase opens a connection pool for dsn and verifies it with a ping.
func NewDatabase(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the journal table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS geocode_journal (
			id          BIGSERIAL PRIMARY KEY,
			run_id      UUID NOT NULL,
			line        INTEGER NOT NULL,
			street      TEXT NOT NULL,
			postalcode  TEXT NOT NULL,
			city        TEXT NOT NULL,
			country     TEXT NOT NULL,
			latitude    TEXT NOT NULL,
			longitude   TEXT NOT NULL,
			found       BOOLEAN NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create journal table: %w", err)
	}

	return nil
}

// Record inserts one journal row for the given entry.
func (r *Repository) Record(ctx context.Context, entry models.JournalEntry) error {
	query := `
		INSERT INTO geocode_journal
			(run_id, line, street, postalcode, city, country, latitude, longitude, found)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`

	_, err := r.db.Exec(ctx, query,
		entry.RunID,
		entry.Line,
		entry.Query.Street,
		entry.Query.PostalCode,
		entry.Query.City,
		entry.Query.Country,
		entry.Coords.Latitude,
		entry.Coords.Longitude,
		entry.Coords.Found(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}

	r.log.DebugContext(ctx, "Journal entry recorded", "run", entry.RunID, "line", entry.Line)

	return nil
}
