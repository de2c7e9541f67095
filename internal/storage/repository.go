package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"weekspend/internal/core"
	"weekspend/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer keeps modernc's SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

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

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListExpenses implements store.ExpenseReader
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, amount, category, note FROM expenses ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(ctx, rows)
}

// AddExpense implements store.ExpenseWriter
func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, date, amount, category, note) VALUES (?, ?, ?, ?, ?)`,
			e.ID, e.Date.String(), e.Amount.StringFixed(2), string(e.Category), e.Note,
		); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		return bumpVersion(ctx, tx)
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"date", e.Date.String(),
		"amount", e.Amount.StringFixed(2),
		"category", e.Category)

	return e, nil
}

// RemoveExpense implements store.ExpenseRemover
func (r *SQLiteRepository) RemoveExpense(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete expense: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete expense: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
		return bumpVersion(ctx, tx)
	})
}

// Version implements store.Versioner
func (r *SQLiteRepository) Version(ctx context.Context) (int64, error) {
	var v int64
	if err := r.db.QueryRowContext(ctx, `SELECT version FROM store_version WHERE id = 1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read store version: %w", err)
	}
	return v, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func bumpVersion(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `UPDATE store_version SET version = version + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("bump store version: %w", err)
	}
	return nil
}

// scanExpenses converts stored rows. Rows with an unreadable date or amount
// are logged and skipped so one bad row never hides the rest of the week.
func scanExpenses(ctx context.Context, rows *sql.Rows) ([]core.Expense, error) {
	var out []core.Expense
	for rows.Next() {
		var id, date, amount, category, note string
		if err := rows.Scan(&id, &date, &amount, &category, &note); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e, err := expenseFromRow(id, date, amount, category, note)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable expense row", "id", id, "error", err)
			continue
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func expenseFromRow(id, date, amount, category, note string) (core.Expense, error) {
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, err
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, amount)
	}
	return core.Expense{
		ID:       id,
		Date:     d,
		Amount:   a,
		Category: core.Category(category),
		Note:     note,
	}, nil
}
