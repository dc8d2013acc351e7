package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/snapgram/backend/internal/db"
	"github.com/snapgram/backend/internal/store"
)

// PostgresStore provides PostgreSQL-backed persistence for every record type.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore constructs a store backed by PostgreSQL.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// View runs fn inside a read-only transaction.
func (s *PostgresStore) View(ctx context.Context, fn store.TxFunc) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadOnly}, fn)
}

// Update runs fn inside a read-write transaction and commits only if fn succeeds.
func (s *PostgresStore) Update(ctx context.Context, fn store.TxFunc) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}, fn)
}

func (s *PostgresStore) run(ctx context.Context, opts pgx.TxOptions, fn store.TxFunc) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return writeErr("commit transaction", err)
	}

	return nil
}

// pgTx implements store.Tx over a single pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

// CountRows returns the row count for every table.
func (t *pgTx) CountRows(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(store.Tables))
	for _, table := range store.Tables {
		var n int
		query := fmt.Sprintf("SELECT count(*) FROM %s", pgx.Identifier{table}.Sanitize())
		if err := t.tx.QueryRow(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// exec runs a statement and reports how many rows it affected.
func (t *pgTx) exec(ctx context.Context, sql string, args ...any) (int, error) {
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// deleteOne runs a single-row DELETE and reports store.ErrNotFound when no row matched.
func (t *pgTx) deleteOne(ctx context.Context, op, sql string, id int64) error {
	n, err := t.exec(ctx, sql, id)
	if err != nil {
		return deleteErr(op, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// deleteMany runs a multi-row DELETE and returns the number of rows removed.
func (t *pgTx) deleteMany(ctx context.Context, op, sql string, args ...any) (int, error) {
	n, err := t.exec(ctx, sql, args...)
	if err != nil {
		return 0, deleteErr(op, err)
	}
	return n, nil
}

// queryAll runs a SELECT and scans every row with scan.
func queryAll[T any](ctx context.Context, t *pgTx, what string, scan func(pgx.Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}

	return out, nil
}

var _ store.Store = (*PostgresStore)(nil)
var _ store.Tx = (*pgTx)(nil)
