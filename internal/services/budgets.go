package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"payflow/internal/core"
)

type BudgetService struct {
	store    BudgetStore
	expenses ExpenseStore
	now      func() time.Time
}

func NewBudgetService(store BudgetStore, expenses ExpenseStore) *BudgetService {
	return &BudgetService{store: store, expenses: expenses, now: time.Now}
}

// month resolves an optional YYYY-MM key, defaulting to the current month.
func (s *BudgetService) month(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return core.CurrentMonth(s.now()), nil
	}
	return core.ParseMonth(raw)
}

// Save inserts or replaces the budget for (month, category).
func (s *BudgetService) Save(ctx context.Context, b core.Budget) (core.Budget, error) {
	month, err := s.month(b.Month)
	if err != nil {
		return core.Budget{}, err
	}
	b.Month = month
	b.Category = strings.TrimSpace(b.Category)
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	saved, err := s.store.SaveBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return saved, nil
}

func (s *BudgetService) List(ctx context.Context, month string) ([]core.Budget, error) {
	m, err := s.month(month)
	if err != nil {
		return nil, err
	}
	return s.store.ListBudgets(ctx, m)
}

func (s *BudgetService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteBudget(ctx, id)
}

// Progress evaluates every budget of the month against that month's expenses.
func (s *BudgetService) Progress(ctx context.Context, month string) ([]core.BudgetProgress, error) {
	m, err := s.month(month)
	if err != nil {
		return nil, err
	}
	budgets, err := s.store.ListBudgets(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	expenses, err := s.expenses.ListExpenses(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return core.EvaluateBudgets(budgets, expenses), nil
}

func (s *BudgetService) Alerts(ctx context.Context, month, currency string) ([]core.BudgetAlert, error) {
	progress, err := s.Progress(ctx, month)
	if err != nil {
		return nil, err
	}
	return core.BudgetAlerts(progress, currency), nil
}
