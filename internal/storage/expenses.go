package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"payflow/internal/core"
)

const expenseColumns = `id, date, category, description, amount, created_at`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e                     core.Expense
		date, amount, created string
	)
	if err := row.Scan(&e.ID, &date, &e.Category, &e.Description, &amount, &created); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	e.Date = d
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Expense{}, fmt.Errorf("expense %d amount: %w", e.ID, err)
	}
	e.CreatedAt = parseTimestamp(created)
	return e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	created := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, category, description, amount, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Date.String(), e.Category, e.Description, e.Amount.StringFixed(2), created)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}
	e.ID = id
	e.CreatedAt = parseTimestamp(created)

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"category", e.Category,
		"amount", e.Amount.StringFixed(2),
		"date", e.Date.String())
	return e, nil
}

// ListExpenses returns expenses newest date first. An empty month lists all.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, month string) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses`
	var args []any
	if month != "" {
		query += ` WHERE substr(date, 1, 7) = ?`
		args = append(args, month)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "expenses", id)
}
