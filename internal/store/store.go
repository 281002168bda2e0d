package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates the requested record does not exist.
// Check with errors.Is().
var ErrNotFound = errors.New("record not found")

// DB is the subset of pgxpool.Pool the store needs. Defining it on the
// consumer side keeps the store testable with pgxmock.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists dashboard records in PostgreSQL.
type Store struct {
	db     DB
	logger *slog.Logger
}

// New creates a Store. logger may be nil.
func New(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}
