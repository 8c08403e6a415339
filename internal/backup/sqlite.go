// Package backup snapshots ledger transactions into a local SQLite
// database and can copy that database to Cloud Storage.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/gajana-dev/gajana/internal/id"
	"github.com/gajana-dev/gajana/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	date        TEXT NOT NULL,
	description TEXT NOT NULL,
	amount      TEXT NOT NULL,
	category    TEXT NOT NULL,
	remarks     TEXT NOT NULL,
	account     TEXT NOT NULL
)`

const upsert = `
INSERT INTO transactions (id, date, description, amount, category, remarks, account)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	category = excluded.category,
	remarks  = excluded.remarks`

// SQLite stores transactions keyed by the hash of their identity key, so
// backing up the same ledger twice leaves one row per transaction.
type SQLite struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating backup dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *SQLite) Path() string { return s.path }

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// Backup upserts txns in a single transaction and returns how many distinct
// rows were written. Transactions sharing an identity key land on one row.
func (s *SQLite) Backup(ctx context.Context, txns []model.Transaction) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin backup: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	seen := make(map[string]struct{}, len(txns))
	for i, txn := range txns {
		key, err := id.KeyOf(txn)
		if err != nil {
			return 0, fmt.Errorf("transaction %d: %w", i, err)
		}
		rowID := id.Hash(key)
		seen[rowID] = struct{}{}
		_, err = stmt.ExecContext(ctx,
			rowID,
			key.Date,
			txn.Description,
			key.Amount,
			txn.Category,
			txn.Remarks,
			txn.Account,
		)
		if err != nil {
			return 0, fmt.Errorf("upserting transaction %d (%s): %w", i, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit backup: %w", err)
	}
	return len(seen), nil
}

// Restore reads every stored transaction, ordered by date then account.
func (s *SQLite) Restore(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, description, amount, category, remarks, account
		FROM transactions
		ORDER BY date, account, description, amount`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var date, amount string
		var t model.Transaction
		if err := rows.Scan(&date, &t.Description, &amount, &t.Category, &t.Remarks, &t.Account); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = time.Parse(id.DateFormat, date); err != nil {
			return nil, fmt.Errorf("parsing stored date %q: %w", date, err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parsing stored amount %q: %w", amount, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
