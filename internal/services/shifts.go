package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"payflow/internal/core"
	"payflow/internal/metrics"
	"payflow/internal/storage"
)

// ShiftRequest is a shift as submitted by a client, optionally tied to a job.
type ShiftRequest struct {
	core.ShiftForm
	JobID *int64 `json:"job_id"`
}

// ShiftService saves shifts locally and hands them to the sync queue.
type ShiftService struct {
	store     ShiftStore
	jobs      JobStore
	publisher Publisher
	reports   Invalidator
	metrics   *metrics.Domain
	config    core.WageConfig
}

func NewShiftService(store ShiftStore, jobs JobStore, publisher Publisher, reports Invalidator, m *metrics.Domain, cfg core.WageConfig) *ShiftService {
	return &ShiftService{
		store:     store,
		jobs:      jobs,
		publisher: publisher,
		reports:   orNop(reports),
		metrics:   m,
		config:    cfg,
	}
}

// Config returns the wage rules applied to new shifts.
func (s *ShiftService) Config() core.WageConfig {
	return s.config
}

// Calculate runs the wage calculator without saving anything. When the
// request names a job and carries no hourly wage the job's rate and
// currency are used.
func (s *ShiftService) Calculate(ctx context.Context, req ShiftRequest) (core.WageResult, error) {
	form := req.ShiftForm
	if req.JobID != nil {
		job, err := s.jobs.GetJob(ctx, *req.JobID)
		if errors.Is(err, storage.ErrNotFound) {
			return core.WageResult{}, ErrInvalidJob
		}
		if err != nil {
			return core.WageResult{}, fmt.Errorf("load job: %w", err)
		}
		if form.HourlyWage == nil {
			wage := job.HourlyWage
			form.HourlyWage = &wage
		}
		if form.Currency == "" {
			form.Currency = job.Currency
		}
	}
	if form.Currency == "" {
		form.Currency = core.DefaultCurrency
	}

	in, err := form.Parse()
	if err != nil {
		return core.WageResult{}, err
	}
	return core.CalculateWage(in, s.config)
}

// Create saves a shift with its computed wage and publishes a sync message.
// A failed publish is logged; the poller picks the shift up later.
func (s *ShiftService) Create(ctx context.Context, req ShiftRequest) (core.Shift, error) {
	res, err := s.Calculate(ctx, req)
	if err != nil {
		return core.Shift{}, err
	}

	shift, err := s.store.CreateShift(ctx, core.ShiftFromWage(res, req.JobID))
	if err != nil {
		return core.Shift{}, fmt.Errorf("save shift: %w", err)
	}
	s.metrics.ShiftCreated(shift.Currency, shift.TotalWage)
	s.reports.Invalidate(ctx)

	if err := s.publishSyncMessage(ctx, shift.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", shift.ID, "error", err)
	}
	return shift, nil
}

func (s *ShiftService) List(ctx context.Context, f storage.ShiftFilter) ([]core.Shift, error) {
	return s.store.ListShifts(ctx, f)
}

func (s *ShiftService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteShift(ctx, id); err != nil {
		return err
	}
	s.reports.Invalidate(ctx)
	return nil
}

func (s *ShiftService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	err := s.publisher.PublishShiftSync(ctx, id, version)
	s.metrics.Published(err)
	return err
}
