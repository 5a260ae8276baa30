// Package storage provides the SQLite storage adapter.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cashflow/internal/core"
	ports "cashflow/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ports.TransactionSource  = (*SQLiteRepository)(nil)
	_ ports.TransactionWriter  = (*SQLiteRepository)(nil)
	_ ports.TransactionUpdater = (*SQLiteRepository)(nil)
	_ ports.TransactionDeleter = (*SQLiteRepository)(nil)
	_ ports.CategoryStore      = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadAll returns every transaction newest-first. Amounts are passed as
// core.Money so normalization keeps the stored cents exactly.
func (r *SQLiteRepository) LoadAll(ctx context.Context) ([]core.RawRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, category, description, amount_cents, tx_type, usage_type, created_by
		FROM transactions
		ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.RawRecord
	for rows.Next() {
		var (
			rec   core.RawRecord
			date  string
			cat   string
			desc  string
			cents int64
		)
		if err := rows.Scan(&rec.ID, &date, &cat, &desc, &cents, &rec.Type, &rec.Usage, &rec.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		rec.RowRef = strconv.FormatInt(rec.ID, 10)
		rec.Date = date
		rec.Category = cat
		rec.Description = desc
		rec.Amount = core.Money{Cents: cents}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (date, category, description, amount_cents, tx_type, usage_type, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.Date, tx.Category, tx.Description, tx.Amount.Cents,
		string(tx.Type), string(tx.Usage), tx.CreatedBy)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"date", tx.Date,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents)

	return strconv.FormatInt(id, 10), nil
}

// Update edits the mutable columns of a row; date and type stay as written.
func (r *SQLiteRepository) Update(ctx context.Context, rowRef string, fields core.TransactionUpdate) error {
	id, err := strconv.ParseInt(rowRef, 10, 64)
	if err != nil {
		return fmt.Errorf("parse row reference %q: %w", rowRef, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, description = ?, amount_cents = ?, usage_type = ?, created_by = ?
		WHERE id = ?`,
		fields.Category, fields.Description, fields.Amount.Cents,
		string(fields.Usage), fields.EditedBy, id)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d not found", id)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("parse id %q: %w", id, err)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, n)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", n, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d not found", n)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyCategory
	}
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RenameCategory(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return core.ErrEmptyCategory
	}
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE name = ?`, newName, oldName)
	if err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %q not found", oldName)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
