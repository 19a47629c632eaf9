// Package services orchestrates the domain operations across storage, the
// report cache and the sync queue.
package services

import (
	"context"
	"errors"

	"payflow/internal/core"
	"payflow/internal/storage"
)

// ErrInvalidJob is returned when a shift references a job that does not exist.
var ErrInvalidJob = errors.New("invalid job assignment")

type (
	JobStore interface {
		CreateJob(ctx context.Context, j core.Job) (core.Job, error)
		GetJob(ctx context.Context, id int64) (core.Job, error)
		ListJobs(ctx context.Context) ([]core.Job, error)
		DeleteJob(ctx context.Context, id int64) error
	}

	ShiftStore interface {
		CreateShift(ctx context.Context, s core.Shift) (core.Shift, error)
		ListShifts(ctx context.Context, f storage.ShiftFilter) ([]core.Shift, error)
		DeleteShift(ctx context.Context, id int64) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		ListExpenses(ctx context.Context, month string) ([]core.Expense, error)
		DeleteExpense(ctx context.Context, id int64) error
	}

	BudgetStore interface {
		SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		ListBudgets(ctx context.Context, month string) ([]core.Budget, error)
		DeleteBudget(ctx context.Context, id int64) error
	}

	ReceiptStore interface {
		CreateReceipt(ctx context.Context, r core.Receipt) (core.Receipt, error)
		GetReceipt(ctx context.Context, id int64) (core.Receipt, error)
		ListReceipts(ctx context.Context) ([]core.Receipt, error)
		DeleteReceipt(ctx context.Context, id int64) error
	}

	// Publisher announces new shifts to the sync worker.
	Publisher interface {
		PublishShiftSync(ctx context.Context, id, version int64) error
	}

	// Invalidator drops cached reports after a write.
	Invalidator interface {
		Invalidate(ctx context.Context)
	}
)

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context) {}

func orNop(inv Invalidator) Invalidator {
	if inv == nil {
		return nopInvalidator{}
	}
	return inv
}
