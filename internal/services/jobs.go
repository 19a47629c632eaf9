package services

import (
	"context"
	"fmt"
	"log/slog"

	"payflow/internal/core"
)

type JobService struct {
	store   JobStore
	reports Invalidator
}

func NewJobService(store JobStore, reports Invalidator) *JobService {
	return &JobService{store: store, reports: orNop(reports)}
}

func (s *JobService) Create(ctx context.Context, j core.Job) (core.Job, error) {
	j.Normalize()
	if err := j.Validate(); err != nil {
		return core.Job{}, err
	}
	created, err := s.store.CreateJob(ctx, j)
	if err != nil {
		return core.Job{}, fmt.Errorf("create job: %w", err)
	}
	return created, nil
}

func (s *JobService) List(ctx context.Context) ([]core.Job, error) {
	return s.store.ListJobs(ctx)
}

// Delete removes a job and leaves its shifts unassigned.
func (s *JobService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteJob(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Job deleted", "id", id)
	s.reports.Invalidate(ctx)
	return nil
}
