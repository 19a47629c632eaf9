package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"payflow/internal/core"
)

// SaveBudget inserts a budget or replaces the amount of the existing
// budget for the same month and category.
func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	err := r.db.QueryRowContext(ctx, `INSERT INTO budgets (month, category, amount) VALUES (?, ?, ?)
		ON CONFLICT (month, category) DO UPDATE SET amount = excluded.amount
		RETURNING id`,
		b.Month, b.Category, b.Amount.StringFixed(2)).Scan(&b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, month string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, month, category, amount FROM budgets WHERE month = ? ORDER BY category COLLATE NOCASE ASC`, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := make([]core.Budget, 0)
	for rows.Next() {
		var (
			b      core.Budget
			amount string
		)
		if err := rows.Scan(&b.ID, &b.Month, &b.Category, &amount); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("budget %d amount: %w", b.ID, err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "budgets", id)
}
