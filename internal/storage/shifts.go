package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"payflow/internal/core"
)

// ShiftFilter narrows ListShifts. Zero values mean no restriction.
type ShiftFilter struct {
	From  *core.Date
	To    *core.Date
	JobID *int64
}

// PendingSyncShift is the minimal data needed to enqueue a sync message.
type PendingSyncShift struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

const shiftSelect = `SELECT s.id, s.date, s.shift_type, s.start_time, s.end_time, s.break_start, s.break_end,
	s.normal_hours, s.night_hours, s.total_hours, s.hourly_wage, s.currency, s.total_wage,
	s.job_id, COALESCE(j.name, ''), COALESCE(j.color, ''), s.sync_status, s.created_at
FROM shifts s LEFT JOIN jobs j ON j.id = s.job_id`

func scanShift(row interface{ Scan(...any) error }) (core.Shift, error) {
	var (
		s                    core.Shift
		date, start, end     string
		breakStart, breakEnd sql.NullString
		jobID                sql.NullInt64
		status, created      string
	)
	err := row.Scan(&s.ID, &date, &s.ShiftType, &start, &end, &breakStart, &breakEnd,
		&s.NormalHours, &s.NightHours, &s.TotalHours, &s.HourlyWage, &s.Currency, &s.TotalWage,
		&jobID, &s.JobName, &s.JobColor, &status, &created)
	if err != nil {
		return core.Shift{}, err
	}
	if s.Date, err = core.ParseDate(date); err != nil {
		return core.Shift{}, fmt.Errorf("shift %d: %w", s.ID, err)
	}
	if s.StartTime, err = core.ParseClock(start); err != nil {
		return core.Shift{}, fmt.Errorf("shift %d start: %w", s.ID, err)
	}
	if s.EndTime, err = core.ParseClock(end); err != nil {
		return core.Shift{}, fmt.Errorf("shift %d end: %w", s.ID, err)
	}
	if breakStart.Valid && breakEnd.Valid {
		bs, err1 := core.ParseClock(breakStart.String)
		be, err2 := core.ParseClock(breakEnd.String)
		if err := errors.Join(err1, err2); err != nil {
			return core.Shift{}, fmt.Errorf("shift %d break: %w", s.ID, err)
		}
		s.Break = &core.TimeRange{Start: bs, End: be}
	}
	if jobID.Valid {
		id := jobID.Int64
		s.JobID = &id
	}
	s.SyncStatus = core.SyncStatus(status)
	s.CreatedAt = parseTimestamp(created)
	return s, nil
}

func nullableClock(r *core.TimeRange, start bool) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	if start {
		return sql.NullString{String: r.Start.String(), Valid: true}
	}
	return sql.NullString{String: r.End.String(), Valid: true}
}

func (r *SQLiteRepository) CreateShift(ctx context.Context, s core.Shift) (core.Shift, error) {
	created := r.timestamp()
	if s.SyncStatus == "" {
		s.SyncStatus = core.SyncPending
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO shifts (
		date, shift_type, start_time, end_time, break_start, break_end,
		normal_hours, night_hours, total_hours, hourly_wage, currency, total_wage,
		job_id, sync_status, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Date.String(), s.ShiftType, s.StartTime.String(), s.EndTime.String(),
		nullableClock(s.Break, true), nullableClock(s.Break, false),
		s.NormalHours, s.NightHours, s.TotalHours, s.HourlyWage, s.Currency, s.TotalWage,
		s.JobID, string(s.SyncStatus), created)
	if err != nil {
		return core.Shift{}, fmt.Errorf("create shift: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Shift{}, fmt.Errorf("shift id: %w", err)
	}

	slog.InfoContext(ctx, "Shift saved to SQLite",
		"id", id,
		"date", s.Date.String(),
		"total_hours", s.TotalHours,
		"total_wage", s.TotalWage)

	return r.GetShift(ctx, id)
}

func (r *SQLiteRepository) GetShift(ctx context.Context, id int64) (core.Shift, error) {
	s, err := scanShift(r.db.QueryRowContext(ctx, shiftSelect+` WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Shift{}, ErrNotFound
	}
	if err != nil {
		return core.Shift{}, fmt.Errorf("get shift %d: %w", id, err)
	}
	return s, nil
}

// ListShifts returns shifts ordered by date and start time.
func (r *SQLiteRepository) ListShifts(ctx context.Context, f ShiftFilter) ([]core.Shift, error) {
	var (
		where []string
		args  []any
	)
	if f.From != nil {
		where = append(where, "s.date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		where = append(where, "s.date <= ?")
		args = append(args, f.To.String())
	}
	if f.JobID != nil {
		where = append(where, "s.job_id = ?")
		args = append(args, *f.JobID)
	}
	query := shiftSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.date ASC, s.start_time ASC, s.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	shifts := make([]core.Shift, 0)
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

func (r *SQLiteRepository) DeleteShift(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "shifts", id)
}

// GetPendingSyncShifts returns the oldest shifts still waiting for the
// spreadsheet, errored ones included.
func (r *SQLiteRepository) GetPendingSyncShifts(ctx context.Context, limit int) ([]PendingSyncShift, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM shifts
		WHERE sync_status IN ('pending', 'error')
		ORDER BY created_at ASC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync shifts: %w", err)
	}
	defer rows.Close()

	pending := make([]PendingSyncShift, 0)
	for rows.Next() {
		var (
			p       PendingSyncShift
			created string
		)
		if err := rows.Scan(&p.ID, &p.Version, &created); err != nil {
			return nil, fmt.Errorf("scan pending shift: %w", err)
		}
		p.CreatedAt = parseTimestamp(created)
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkSynced marks a shift as written to the spreadsheet.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shifts SET sync_status = 'synced', synced_at = ?, version = version + 1 WHERE id = ?`,
		r.timestamp(), id)
	if err != nil {
		return fmt.Errorf("mark shift synced: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Shift marked as synced", "id", id)
	return nil
}

// MarkSyncError flags a shift whose sync attempt failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shifts SET sync_status = 'error', version = version + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark shift sync error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	slog.WarnContext(ctx, "Shift marked with sync error", "id", id)
	return nil
}
