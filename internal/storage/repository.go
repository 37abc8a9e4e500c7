// Package storage persists transactions and categories in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// timestampLayout is fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const transactionColumns = `
	t.id, t.amount, t.date, t.description, t.owner_id, t.category_id,
	t.created_at, t.updated_at,
	c.id, c.name, c.color, c.kind, c.owner_id`

const transactionFrom = `
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id`

type SQLiteRepository struct {
	db     *sql.DB
	schema SchemaVersion
}

// DSN returns the connection string for a database file with foreign keys
// enforced.
func DSN(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema, err := RunMigrations(dsn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, schema: schema}, nil
}

// Schema reports the migration level reached when the repository opened.
func (r *SQLiteRepository) Schema() SchemaVersion {
	return r.schema
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListTransactions returns every transaction of the owner, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	txs, err := r.queryTransactions(ctx,
		`SELECT`+transactionColumns+transactionFrom+`
		WHERE t.owner_id = ?
		ORDER BY t.date DESC, t.created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// ListTransactionsBetween returns the owner's transactions dated within
// [start, end], oldest first.
func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, ownerID string, start, end core.Date) ([]core.Transaction, error) {
	txs, err := r.queryTransactions(ctx,
		`SELECT`+transactionColumns+transactionFrom+`
		WHERE t.owner_id = ? AND t.date >= ? AND t.date <= ?
		ORDER BY t.date ASC, t.created_at ASC`, ownerID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions %s..%s: %w", start, end, err)
	}
	return txs, nil
}

// RecentTransactions returns the owner's limit newest transactions.
func (r *SQLiteRepository) RecentTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error) {
	txs, err := r.queryTransactions(ctx,
		`SELECT`+transactionColumns+transactionFrom+`
		WHERE t.owner_id = ?
		ORDER BY t.date DESC, t.created_at DESC
		LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return txs, nil
}

// GetTransaction returns one transaction with its category, or
// core.ErrNotFound.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+transactionColumns+transactionFrom+`
		WHERE t.owner_id = ? AND t.id = ?`, ownerID, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

// CreateTransaction inserts tx and returns it as stored.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, amount, date, description, owner_id, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, core.FormatAmount(tx.Amount), tx.Date.String(), tx.Description, tx.OwnerID,
		nullString(tx.CategoryID), formatTimestamp(tx.CreatedAt), formatTimestamp(tx.UpdatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"amount", core.FormatAmount(tx.Amount),
		"date", tx.Date.String())

	return r.GetTransaction(ctx, tx.OwnerID, tx.ID)
}

// UpdateTransaction overwrites the mutable fields of tx. A row that vanished
// since it was read yields core.ErrNotFound.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		SET amount = ?, date = ?, description = ?, category_id = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		core.FormatAmount(tx.Amount), tx.Date.String(), tx.Description,
		nullString(tx.CategoryID), formatTimestamp(tx.UpdatedAt), tx.ID, tx.OwnerID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", tx.ID, err)
	}
	if err := expectOneRow(res); err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, tx.OwnerID, tx.ID)
}

// DeleteTransaction removes a transaction permanently.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

// ListCategories returns the owner's categories, expense kinds first.
func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, color, kind, owner_id FROM categories
		WHERE owner_id = ?
		ORDER BY kind ASC, name ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		var c core.Category
		var kind string
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &kind, &c.OwnerID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.CategoryKind(kind)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns one of the owner's categories, or core.ErrNotFound.
func (r *SQLiteRepository) GetCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	var c core.Category
	var kind string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, color, kind, owner_id FROM categories
		WHERE owner_id = ? AND id = ?`, ownerID, id).
		Scan(&c.ID, &c.Name, &c.Color, &kind, &c.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	c.Kind = core.CategoryKind(kind)
	return c, nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx                       core.Transaction
		amount, date             string
		categoryID               sql.NullString
		createdAt, updatedAt     string
		catID, catName, catColor sql.NullString
		catKind, catOwner        sql.NullString
	)
	err := s.Scan(
		&tx.ID, &amount, &date, &tx.Description, &tx.OwnerID, &categoryID,
		&createdAt, &updatedAt,
		&catID, &catName, &catColor, &catKind, &catOwner,
	)
	if err != nil {
		return core.Transaction{}, err
	}

	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount %q: %w", tx.ID, amount, err)
	}
	if tx.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	if tx.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s created_at: %w", tx.ID, err)
	}
	if tx.UpdatedAt, err = time.Parse(timestampLayout, updatedAt); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s updated_at: %w", tx.ID, err)
	}

	tx.CategoryID = categoryID.String
	if catID.Valid {
		tx.Category = &core.Category{
			ID:      catID.String,
			Name:    catName.String,
			Color:   catColor.String,
			Kind:    core.CategoryKind(catKind.String),
			OwnerID: catOwner.String,
		}
	}
	return tx, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
