package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/cache"
	"payflow/internal/core"
	"payflow/internal/storage"
)

type fakePublisher struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (p *fakePublisher) PublishShiftSync(_ context.Context, id, _ int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, id)
	return p.err
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) { c.n++ }

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "payflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func ptr[T any](v T) *T { return &v }

func TestExpenseService(t *testing.T) {
	ctx := context.Background()
	inv := &countingInvalidator{}
	svc := NewExpenseService(newRepo(t), inv)

	_, err := svc.Create(ctx, core.Expense{Date: core.NewDate(2024, 5, 2), Amount: decimal.Zero})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	e, err := svc.Create(ctx, core.Expense{
		Date:        core.NewDate(2024, 5, 2),
		Description: "  lunch ",
		Amount:      decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultExpenseCategory, e.Category)
	assert.Equal(t, "lunch", e.Description)
	assert.Equal(t, 1, inv.n)

	list, err := svc.List(ctx, "2024-05")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.List(ctx, "May")
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	require.NoError(t, svc.Delete(ctx, e.ID))
	assert.ErrorIs(t, svc.Delete(ctx, e.ID), storage.ErrNotFound)
	assert.Equal(t, 2, inv.n)
}

func TestJobService(t *testing.T) {
	ctx := context.Background()
	svc := NewJobService(newRepo(t), nil)

	_, err := svc.Create(ctx, core.Job{Name: "  "})
	assert.ErrorIs(t, err, core.ErrEmptyName)

	_, err = svc.Create(ctx, core.Job{Name: "Cafe", Color: "red"})
	assert.ErrorIs(t, err, core.ErrInvalidColor)

	j, err := svc.Create(ctx, core.Job{Name: " Cafe ", HourlyWage: 1100})
	require.NoError(t, err)
	assert.Equal(t, "Cafe", j.Name)
	assert.Equal(t, core.DefaultCurrency, j.Currency)
	assert.Equal(t, core.DefaultJobColor, j.Color)

	require.NoError(t, svc.Delete(ctx, j.ID))
	assert.ErrorIs(t, svc.Delete(ctx, j.ID), storage.ErrNotFound)
}

func TestShiftServiceCreateUsesJobWage(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	pub := &fakePublisher{}
	inv := &countingInvalidator{}
	svc := NewShiftService(repo, repo, pub, inv, nil, core.DefaultWageConfig())

	job, err := NewJobService(repo, nil).Create(ctx, core.Job{Name: "Cafe", HourlyWage: 1000, Currency: "$"})
	require.NoError(t, err)

	shift, err := svc.Create(ctx, ShiftRequest{
		ShiftForm: core.ShiftForm{Date: "2024-05-01", StartTime: "09:00", EndTime: "13:00"},
		JobID:     &job.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 4000.0, shift.TotalWage)
	assert.Equal(t, "$", shift.Currency)
	assert.Equal(t, "Cafe", shift.JobName)
	assert.Equal(t, core.SyncPending, shift.SyncStatus)
	assert.Equal(t, []int64{shift.ID}, pub.ids)
	assert.Equal(t, 1, inv.n)
}

func TestShiftServiceCreate(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	t.Run("unknown job", func(t *testing.T) {
		svc := NewShiftService(repo, repo, nil, nil, nil, core.DefaultWageConfig())
		_, err := svc.Create(ctx, ShiftRequest{
			ShiftForm: core.ShiftForm{Date: "2024-05-01", StartTime: "09:00", EndTime: "13:00", HourlyWage: ptr(1000.0)},
			JobID:     ptr(int64(99)),
		})
		assert.ErrorIs(t, err, ErrInvalidJob)
	})

	t.Run("missing wage", func(t *testing.T) {
		svc := NewShiftService(repo, repo, nil, nil, nil, core.DefaultWageConfig())
		_, err := svc.Create(ctx, ShiftRequest{
			ShiftForm: core.ShiftForm{Date: "2024-05-01", StartTime: "09:00", EndTime: "13:00"},
		})
		assert.ErrorIs(t, err, core.ErrMissingHourlyWage)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("broker down")}
		svc := NewShiftService(repo, repo, pub, nil, nil, core.DefaultWageConfig())
		shift, err := svc.Create(ctx, ShiftRequest{
			ShiftForm: core.ShiftForm{Date: "2024-05-01", StartTime: "22:00", EndTime: "06:00", HourlyWage: ptr(1000.0)},
		})
		require.NoError(t, err)
		assert.Equal(t, 8.0, shift.TotalHours)
		assert.Equal(t, core.DefaultCurrency, shift.Currency)
		assert.Len(t, pub.ids, 1)
	})
}

func TestShiftServiceCalculateUsesConfig(t *testing.T) {
	cfg := core.DefaultWageConfig()
	cfg.EnableNightShift = true
	svc := NewShiftService(newRepo(t), nil, nil, nil, nil, cfg)

	res, err := svc.Calculate(context.Background(), ShiftRequest{
		ShiftForm: core.ShiftForm{Date: "2024-05-01", StartTime: "20:00", EndTime: "00:00", HourlyWage: ptr(1000.0)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.NormalHours)
	assert.Equal(t, 2.0, res.NightHours)
	assert.Equal(t, 4500.0, res.TotalWage)
	assert.True(t, svc.Config().EnableNightShift)
}

func TestBudgetService(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewBudgetService(repo, repo)
	svc.now = func() time.Time { return time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC) }

	b, err := svc.Save(ctx, core.Budget{Category: "Food", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, "2024-05", b.Month)

	_, err = svc.Save(ctx, core.Budget{Month: "2024-05", Category: " "})
	assert.ErrorIs(t, err, core.ErrEmptyCategory)

	_, err = repo.CreateExpense(ctx, core.Expense{Date: core.NewDate(2024, 5, 3), Category: "Food", Amount: decimal.NewFromInt(85)})
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, core.Expense{Date: core.NewDate(2024, 4, 30), Category: "Food", Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)

	progress, err := svc.Progress(ctx, "")
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, 85, progress[0].Percent)
	assert.Equal(t, core.BudgetNear, progress[0].Status)

	alerts, err := svc.Alerts(ctx, "2024-05", "$")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Heads up! Food spending is at 85% of your $100.00 budget.", alerts[0].Message)

	_, err = svc.List(ctx, "2024-13")
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	require.NoError(t, svc.Delete(ctx, b.ID))
	budgets, err := svc.List(ctx, "2024-05")
	require.NoError(t, err)
	assert.Empty(t, budgets)
}

func TestReceiptService(t *testing.T) {
	ctx := context.Background()
	svc := NewReceiptService(newRepo(t))

	_, err := svc.Create(ctx, ReceiptRequest{Title: "empty"})
	assert.ErrorIs(t, err, core.ErrNoReceiptItems)

	_, err = svc.Create(ctx, ReceiptRequest{Items: []core.LineItem{{Quantity: 0, UnitPrice: 1}}})
	assert.ErrorIs(t, err, core.ErrInvalidQuantity)

	rc, err := svc.Create(ctx, ReceiptRequest{
		Title: "Groceries",
		Items: []core.LineItem{
			{Description: "Rice", Quantity: 2, UnitPrice: 100, TaxRate: 10},
			{Description: "Tea", Quantity: 1, UnitPrice: 50},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 250.0, rc.Subtotal)
	assert.Equal(t, 20.0, rc.TaxTotal)
	assert.Equal(t, 270.0, rc.GrandTotal)

	got, err := svc.Get(ctx, rc.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	require.NoError(t, svc.Delete(ctx, rc.ID))
	_, err = svc.Get(ctx, rc.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReportServiceCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	reports := NewReportService(repo, repo, cache.NewLRUCache[core.Report](10, time.Minute), nil)
	reports.now = func() time.Time { return time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC) }
	shifts := NewShiftService(repo, repo, nil, reports, nil, core.DefaultWageConfig())

	_, err := shifts.Create(ctx, ShiftRequest{
		ShiftForm: core.ShiftForm{Date: "2024-05-20", StartTime: "09:00", EndTime: "11:00", HourlyWage: ptr(1000.0)},
	})
	require.NoError(t, err)

	r, err := reports.Report(ctx, core.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, r.IncomeTotal)
	assert.Equal(t, 2000.0, r.Periods.Week.Income)

	// a write behind the service's back is not visible until invalidation
	_, err = repo.CreateExpense(ctx, core.Expense{Date: core.NewDate(2024, 5, 20), Category: "Food", Amount: decimal.NewFromInt(300)})
	require.NoError(t, err)
	r, err = reports.Report(ctx, core.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.ExpenseTotal)

	reports.Invalidate(ctx)
	r, err = reports.Report(ctx, core.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 300.0, r.ExpenseTotal)
	assert.Equal(t, 1700.0, r.Net)
	assert.Equal(t, 300.0, r.ByCategory["Food"])
	assert.Equal(t, 2000.0, r.ByJob[core.UnassignedJob])
}
