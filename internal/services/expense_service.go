package services

import (
	"context"
	"fmt"

	"payflow/internal/core"
)

type ExpenseService struct {
	store   ExpenseStore
	reports Invalidator
}

func NewExpenseService(store ExpenseStore, reports Invalidator) *ExpenseService {
	return &ExpenseService{store: store, reports: orNop(reports)}
}

func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.reports.Invalidate(ctx)
	return created, nil
}

// List returns expenses of month (YYYY-MM), or all of them when month is empty.
func (s *ExpenseService) List(ctx context.Context, month string) ([]core.Expense, error) {
	if month != "" {
		m, err := core.ParseMonth(month)
		if err != nil {
			return nil, err
		}
		month = m
	}
	return s.store.ListExpenses(ctx, month)
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.reports.Invalidate(ctx)
	return nil
}
