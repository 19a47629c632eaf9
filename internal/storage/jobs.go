package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"payflow/internal/core"
)

const jobColumns = `id, name, hourly_wage, currency, color, created_at`

func scanJob(row interface{ Scan(...any) error }) (core.Job, error) {
	var (
		j       core.Job
		created string
	)
	if err := row.Scan(&j.ID, &j.Name, &j.HourlyWage, &j.Currency, &j.Color, &created); err != nil {
		return core.Job{}, err
	}
	j.CreatedAt = parseTimestamp(created)
	return j, nil
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j core.Job) (core.Job, error) {
	created := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (name, hourly_wage, currency, color, created_at) VALUES (?, ?, ?, ?, ?)`,
		j.Name, j.HourlyWage, j.Currency, j.Color, created)
	if err != nil {
		return core.Job{}, fmt.Errorf("create job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Job{}, fmt.Errorf("job id: %w", err)
	}
	j.ID = id
	j.CreatedAt = parseTimestamp(created)

	slog.InfoContext(ctx, "Job saved to SQLite", "id", id, "name", j.Name)
	return j, nil
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id int64) (core.Job, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Job{}, ErrNotFound
	}
	if err != nil {
		return core.Job{}, fmt.Errorf("get job %d: %w", id, err)
	}
	return j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context) ([]core.Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]core.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// DeleteJob removes a job and leaves its shifts unassigned.
func (r *SQLiteRepository) DeleteJob(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE shifts SET job_id = NULL WHERE job_id = ?`, id); err != nil {
			return fmt.Errorf("unassign shifts: %w", err)
		}
		return deleteByID(ctx, tx, "jobs", id)
	})
}
