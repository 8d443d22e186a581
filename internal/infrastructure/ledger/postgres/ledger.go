package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

// Ledger is the durable exclusion ledger backed by a postgres table.
// Append-only: rows are never deleted in normal operation.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (l *Ledger) EnsureSchema(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across overlapping runner/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS excluded_books (
	id BIGSERIAL PRIMARY KEY,
	chosen_on DATE NOT NULL,
	title TEXT NOT NULL,
	author TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create excluded_books: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// ListTitles returns every previously-chosen title in append order.
func (l *Ledger) ListTitles(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT title
FROM excluded_books
ORDER BY id
`)
	if err != nil {
		return nil, fmt.Errorf("list excluded titles: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan excluded title: %w", err)
		}
		out = append(out, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate excluded titles: %w", err)
	}
	return out, nil
}

// Append records one chosen book. The insert commits before returning, so
// success here means the never-repeat invariant holds for future runs.
func (l *Ledger) Append(ctx context.Context, entry domain.LedgerEntry) error {
	_, err := l.db.ExecContext(ctx, `
INSERT INTO excluded_books (chosen_on, title, author, category)
VALUES ($1,$2,$3,$4)
`, entry.Date, entry.Title, entry.Author, entry.Category)
	if err != nil {
		return fmt.Errorf("append excluded book: %w", err)
	}
	return nil
}
