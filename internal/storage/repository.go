// Package storage persists state snapshots in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/store"

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

// Load reads the full state. A database with no settings row is a fresh
// installation and reports found=false without error.
func (r *SQLiteRepository) Load(ctx context.Context) (*store.State, bool, error) {
	var st store.State
	var hasOnboarded int64

	err := r.db.QueryRowContext(ctx,
		`SELECT monthly_income_cents, currency, theme, has_onboarded FROM settings WHERE id = 1`).
		Scan(&st.MonthlyIncome.Cents, &st.Currency, &st.Theme, &hasOnboarded)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load settings: %w", err)
	}
	st.HasOnboarded = hasOnboarded != 0

	categories, err := r.loadCategories(ctx)
	if err != nil {
		return nil, false, err
	}
	st.Categories = categories

	transactions, err := r.loadTransactions(ctx)
	if err != nil {
		return nil, false, err
	}
	st.Transactions = transactions

	return &st, true, nil
}

func (r *SQLiteRepository) loadCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, color, icon, budget_limit_cents FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Icon, &c.BudgetLimit.Cents); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) loadTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, category_id, description, date, type, is_recurring, recurrence
		 FROM transactions ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var date string
		var isRecurring int64
		if err := rows.Scan(&t.ID, &t.Amount.Cents, &t.CategoryID, &t.Description,
			&date, &t.Type, &isRecurring, &t.Recurrence); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
		}
		t.IsRecurring = isRecurring != 0
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Save replaces the stored snapshot with the given one in a single
// transaction.
func (r *SQLiteRepository) Save(ctx context.Context, st store.State) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	hasOnboarded := int64(0)
	if st.HasOnboarded {
		hasOnboarded = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings (id, monthly_income_cents, currency, theme, has_onboarded)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   monthly_income_cents = excluded.monthly_income_cents,
		   currency = excluded.currency,
		   theme = excluded.theme,
		   has_onboarded = excluded.has_onboarded`,
		st.MonthlyIncome.Cents, st.Currency, st.Theme, hasOnboarded); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	for _, c := range st.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name, color, icon, budget_limit_cents) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Color, c.Icon, c.BudgetLimit.Cents); err != nil {
			return fmt.Errorf("save category %s: %w", c.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	for _, t := range st.Transactions {
		isRecurring := int64(0)
		if t.IsRecurring {
			isRecurring = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, amount_cents, category_id, description, date, type, is_recurring, recurrence)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Amount.Cents, t.CategoryID, t.Description,
			t.Date.Format(time.RFC3339), string(t.Type), isRecurring, string(t.Recurrence)); err != nil {
			return fmt.Errorf("save transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	slog.DebugContext(ctx, "State saved to SQLite",
		"categories", len(st.Categories),
		"transactions", len(st.Transactions))
	return nil
}
