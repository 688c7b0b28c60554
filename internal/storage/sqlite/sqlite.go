// Package sqlite stores the ledger in a single SQLite table. The schema is
// managed by embedded migrations; Save rewrites the table in one transaction.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"finledger/internal/core"
	"finledger/internal/storage"
)

const driverName = "sqlite"

var _ storage.Repository = (*Repository)(nil)

type Repository struct {
	db *sqlx.DB
}

type record struct {
	Position    int64  `db:"position"`
	ID          int64  `db:"id"`
	Date        string `db:"date"`
	Kind        string `db:"kind"`
	Category    string `db:"category"`
	AmountCents int64  `db:"amount_cents"`
	Description string `db:"description"`
}

const (
	selectEntries = `SELECT position, id, date, kind, category, amount_cents, description
		FROM entries ORDER BY position`
	insertEntry = `INSERT INTO entries (position, id, date, kind, category, amount_cents, description)
		VALUES (:position, :id, :date, :kind, :category, :amount_cents, :description)`
)

// New opens (creating if needed) the database at dbPath and migrates it.
func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serialises anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load reads every row in insertion order. Rows are validated with the same
// rules as the file formats; Line in a SkippedRecord is the row's position.
func (r *Repository) Load(ctx context.Context) (storage.LoadResult, error) {
	var recs []record
	if err := r.db.SelectContext(ctx, &recs, selectEntries); err != nil {
		return storage.LoadResult{}, fmt.Errorf("select entries: %w", err)
	}

	rows := make([][]string, 0, len(recs)+1)
	rows = append(rows, storage.Header())
	for _, rec := range recs {
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Date,
			rec.Kind,
			rec.Category,
			core.Money{Cents: rec.AmountCents}.String(),
			rec.Description,
		})
	}

	res, err := storage.DecodeTable(rows)
	if err != nil {
		return storage.LoadResult{}, err
	}
	for i := range res.Skipped {
		res.Skipped[i].Line = int(recs[res.Skipped[i].Line-2].Position)
	}
	return res, nil
}

// Save replaces the table contents with entries, atomically.
func (r *Repository) Save(ctx context.Context, entries []core.Entry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	for i, e := range entries {
		rec := record{
			Position:    int64(i + 1),
			ID:          e.ID,
			Date:        e.Date.String(),
			Kind:        e.Kind.String(),
			Category:    e.Category,
			AmountCents: e.Amount.Cents,
			Description: e.Description,
		}
		if _, err = tx.NamedExecContext(ctx, insertEntry, rec); err != nil {
			return fmt.Errorf("insert entry %d: %w", e.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
