package jobs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strelitziathe1/anime/internal/models"
)

const jobColumns = `id, status, COALESCE(created_by,''), preset_info, logs_text, source_key, source_bucket, created_at, finished_at`

// Repository handles transcoding job persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a transcoding jobs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanJob(row pgx.Row) (*models.TranscodingJob, error) {
	var j models.TranscodingJob
	err := row.Scan(&j.ID, &j.Status, &j.CreatedBy, &j.Preset, &j.LogsText, &j.SourceKey, &j.SourceBucket, &j.CreatedAt, &j.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

// Create inserts a new pending job. The id equals the upload id.
func (r *Repository) Create(ctx context.Context, job *models.TranscodingJob) error {
	const q = `INSERT INTO transcoding_jobs (id, status, created_by, preset_info)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	status := job.Status
	if status == "" {
		status = models.JobStatusPending
	}
	return r.pool.QueryRow(ctx, q, job.ID, status, job.CreatedBy, job.Preset).Scan(&job.CreatedAt)
}

// GetByID returns a job by id, or nil when unknown.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.TranscodingJob, error) {
	const q = `SELECT ` + jobColumns + ` FROM transcoding_jobs WHERE id = $1`
	return scanJob(r.pool.QueryRow(ctx, q, id))
}

// List returns the most recent jobs, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]models.TranscodingJob, error) {
	const q = `SELECT ` + jobColumns + ` FROM transcoding_jobs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.TranscodingJob
	for rows.Next() {
		var j models.TranscodingJob
		if err := rows.Scan(&j.ID, &j.Status, &j.CreatedBy, &j.Preset, &j.LogsText, &j.SourceKey, &j.SourceBucket, &j.CreatedAt, &j.FinishedAt); err != nil {
			return nil, err
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

// MarkProcessing records that a worker picked the job up, along with the
// source object location so the admin API can rebuild a retry descriptor.
// A cancellation that landed while the job sat on the queue is preserved so
// the worker's pre-encode check still observes it.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID, sourceBucket, sourceKey string) error {
	const q = `UPDATE transcoding_jobs
		SET status = CASE WHEN status = 'cancelled' THEN status ELSE $1 END,
		    source_bucket = $2, source_key = $3, finished_at = NULL
		WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, models.JobStatusProcessing, sourceBucket, sourceKey, id)
	return err
}

// AppendLog appends one line to the job's diagnostic trail.
func (r *Repository) AppendLog(ctx context.Context, id uuid.UUID, line string) error {
	const q = `UPDATE transcoding_jobs
		SET logs_text = CASE WHEN logs_text = '' THEN $1 ELSE logs_text || E'\n' || $1 END
		WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, line, id)
	return err
}

// MarkSuccess sets the terminal success status with a finish timestamp and a
// confirmatory log line.
func (r *Repository) MarkSuccess(ctx context.Context, id uuid.UUID, line string) error {
	return r.markTerminal(ctx, id, models.JobStatusSuccess, line)
}

// MarkFailed sets the terminal failed status with a finish timestamp and the
// causing diagnostic text.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, line string) error {
	return r.markTerminal(ctx, id, models.JobStatusFailed, line)
}

func (r *Repository) markTerminal(ctx context.Context, id uuid.UUID, status, line string) error {
	const q = `UPDATE transcoding_jobs
		SET status = $1, finished_at = NOW(),
		    logs_text = CASE WHEN logs_text = '' THEN $2 ELSE logs_text || E'\n' || $2 END
		WHERE id = $3`
	_, err := r.pool.Exec(ctx, q, status, line, id)
	return err
}

// SetStatus overwrites the status without touching the log (cancel path).
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	const q = `UPDATE transcoding_jobs SET status = $1 WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, status, id)
	return err
}

// MarkPendingRetry resets the job to pending ahead of a re-enqueue.
func (r *Repository) MarkPendingRetry(ctx context.Context, id uuid.UUID, line string) error {
	const q = `UPDATE transcoding_jobs
		SET status = $1, finished_at = NULL,
		    logs_text = CASE WHEN logs_text = '' THEN $2 ELSE logs_text || E'\n' || $2 END
		WHERE id = $3`
	_, err := r.pool.Exec(ctx, q, models.JobStatusPending, line, id)
	return err
}
