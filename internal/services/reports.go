package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"payflow/internal/cache"
	"payflow/internal/core"
	"payflow/internal/metrics"
	"payflow/internal/storage"
)

// ReportService builds income/expense reports and caches them until the
// next write.
type ReportService struct {
	shifts   ShiftStore
	expenses ExpenseStore
	cache    cache.Store[core.Report]
	metrics  *metrics.Domain
	now      func() time.Time
}

func NewReportService(shifts ShiftStore, expenses ExpenseStore, c cache.Store[core.Report], m *metrics.Domain) *ReportService {
	return &ReportService{
		shifts:   shifts,
		expenses: expenses,
		cache:    c,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *ReportService) today() core.Date {
	n := s.now()
	return core.NewDate(n.Year(), int(n.Month()), n.Day())
}

func (s *ReportService) Report(ctx context.Context, f core.ReportFilter) (core.Report, error) {
	today := s.today()
	key := f.CacheKey(today)
	if s.cache != nil {
		if r, ok := s.cache.Get(ctx, key); ok {
			s.metrics.CacheLookup(true)
			return r, nil
		}
		s.metrics.CacheLookup(false)
	}

	shifts, err := s.shifts.ListShifts(ctx, storage.ShiftFilter{})
	if err != nil {
		return core.Report{}, fmt.Errorf("list shifts: %w", err)
	}
	expenses, err := s.expenses.ListExpenses(ctx, "")
	if err != nil {
		return core.Report{}, fmt.Errorf("list expenses: %w", err)
	}

	r := core.BuildReport(shifts, expenses, f, today)
	if s.cache != nil {
		s.cache.Set(ctx, key, r)
	}
	return r, nil
}

// Invalidate drops every cached report.
func (s *ReportService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Purge(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to purge report cache", "error", err)
	}
}
