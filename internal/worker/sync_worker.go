package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"payflow/internal/amqp"
	"payflow/internal/core"
	"payflow/internal/metrics"
	"payflow/internal/sheets"
	"payflow/internal/storage"
)

// ShiftStore is the slice of storage the worker needs.
type ShiftStore interface {
	GetShift(ctx context.Context, id int64) (core.Shift, error)
	GetPendingSyncShifts(ctx context.Context, limit int) ([]storage.PendingSyncShift, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// startupConcurrency bounds parallel spreadsheet writes during the startup check.
const startupConcurrency = 4

// SyncWorker pushes stored shifts to the spreadsheet.
type SyncWorker struct {
	storage   ShiftStore
	sheets    sheets.ShiftWriter
	metrics   *metrics.Domain
	batchSize int
}

func NewSyncWorker(store ShiftStore, writer sheets.ShiftWriter, m *metrics.Domain, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		storage:   store,
		sheets:    writer,
		metrics:   m,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one message from the queue. Shifts that were
// deleted or already synced are acknowledged without writing.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ShiftSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"message_id", msg.MessageID)

	shift, err := w.storage.GetShift(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Shift no longer exists, dropping message", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get shift from storage: %w", err)
	}
	if shift.SyncStatus == core.SyncSynced {
		slog.InfoContext(ctx, "Shift already synced", "id", msg.ID)
		return nil
	}

	if err := w.syncShiftToSheets(ctx, shift); err != nil {
		return fmt.Errorf("sync shift to sheets: %w", err)
	}
	return nil
}

// ProcessPendingShifts is the backup path for lost queue messages.
func (w *SyncWorker) ProcessPendingShifts(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncShifts(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending shifts: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending shifts", "count", len(pending))
	for _, p := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.syncByID(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync shift", "id", p.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck processes a larger batch once when the worker boots.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncShifts(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending shifts for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending shifts found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending shifts on startup, processing...", "count", len(pending))

	var synced, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(startupConcurrency)
	for _, p := range pending {
		g.Go(func() error {
			if err := w.syncByID(gctx, p.ID); err != nil {
				slog.ErrorContext(gctx, "Failed to sync shift during startup", "id", p.ID, "error", err)
				failed.Add(1)
				return nil
			}
			synced.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced.Load(),
		"errors", failed.Load())
	return nil
}

func (w *SyncWorker) syncByID(ctx context.Context, id int64) error {
	shift, err := w.storage.GetShift(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
			}
		}
		return fmt.Errorf("get shift: %w", err)
	}
	return w.syncShiftToSheets(ctx, shift)
}

func (w *SyncWorker) syncShiftToSheets(ctx context.Context, shift core.Shift) error {
	ref, err := w.sheets.AppendShift(ctx, shift)
	w.metrics.Synced(err)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, shift.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", shift.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	// the row is written; a failed status update only means a later duplicate
	if err := w.storage.MarkSynced(ctx, shift.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", shift.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced shift",
		"id", shift.ID,
		"sheets_ref", ref,
		"date", shift.Date.String(),
		"total_wage", shift.TotalWage)
	return nil
}
