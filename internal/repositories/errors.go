package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/snapgram/backend/internal/store"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgReadOnlyTransaction = "25006"
)

// writeErr maps a failed INSERT or UPDATE onto the store error taxonomy. A
// foreign key violation on a write means the referenced row is missing.
func writeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return store.ErrConflict
		case pgForeignKeyViolation:
			return store.ErrNotFound
		case pgCheckViolation, pgNotNullViolation:
			return store.ErrConstraint
		case pgReadOnlyTransaction:
			return store.ErrReadOnly
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// deleteErr maps a failed DELETE. A foreign key violation on delete means
// dependent rows still exist.
func deleteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return store.ErrReferenced
		case pgReadOnlyTransaction:
			return store.ErrReadOnly
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// readErr maps a failed single-row SELECT.
func readErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
