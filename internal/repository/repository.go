package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/geocsv/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool used by the repository.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	db  Database
	log *slog.Logger
}

// Interface records the outcome of every geocoded row.
type Interface interface {
	Record(ctx context.Context, entry models.JournalEntry) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// Nop is the journal used when no database is configured.
type Nop struct{}

// Record discards the entry.
func (Nop) Record(context.Context, models.JournalEntry) error { return nil }
