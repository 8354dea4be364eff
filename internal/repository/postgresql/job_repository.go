// Package postgresql archives finished download records.
package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"downloader-api/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS download_jobs (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	source_url   TEXT NOT NULL,
	status       TEXT NOT NULL,
	options      JSONB NOT NULL DEFAULT '{}',
	progress     JSONB NOT NULL DEFAULT '{}',
	result       JSONB,
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS download_jobs_finished_at_idx ON download_jobs (finished_at DESC);
`

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return pool, nil
}

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Save upserts a record. Only terminal records are archived.
func (r *JobRepository) Save(ctx context.Context, job entity.Job) error {
	if !job.Status.IsTerminal() {
		return fmt.Errorf("archive job %s: status %s is not terminal", job.ID, job.Status)
	}

	opts, err := json.Marshal(job.Options)
	if err != nil {
		return err
	}
	progress, err := json.Marshal(job.Progress)
	if err != nil {
		return err
	}
	var result []byte
	if job.Result != nil {
		if result, err = json.Marshal(job.Result); err != nil {
			return err
		}
	}
	var errText *string
	if job.ErrorDetail != "" {
		errText = &job.ErrorDetail
	}

	const q = `
INSERT INTO download_jobs (id, kind, source_url, status, options, progress, result, error, created_at, updated_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	progress = EXCLUDED.progress,
	result = EXCLUDED.result,
	error = EXCLUDED.error,
	updated_at = EXCLUDED.updated_at,
	finished_at = EXCLUDED.finished_at;
`
	_, err = r.pool.Exec(ctx, q,
		job.ID, string(job.Kind), job.SourceURL, string(job.Status),
		opts, progress, result, errText,
		job.CreatedAt, job.UpdatedAt, job.FinishedAt,
	)
	return err
}

const selectColumns = `id, kind, source_url, status, options, progress, result, error, created_at, updated_at, finished_at`

func (r *JobRepository) GetByID(ctx context.Context, id string) (entity.Job, error) {
	q := `SELECT ` + selectColumns + ` FROM download_jobs WHERE id = $1;`

	job, err := scanJob(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Job{}, entity.ErrNotFound
		}
		return entity.Job{}, err
	}
	return job, nil
}

// Recent returns archived records, most recently finished first.
func (r *JobRepository) Recent(ctx context.Context, limit int) ([]entity.Job, error) {
	q := `SELECT ` + selectColumns + ` FROM download_jobs ORDER BY finished_at DESC NULLS LAST LIMIT $1;`

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row) (entity.Job, error) {
	var (
		job           entity.Job
		kind, status  string
		optionBytes   []byte
		progressBytes []byte
		resultBytes   []byte
		errText       *string
		finishedAt    *time.Time
	)
	if err := row.Scan(
		&job.ID,
		&kind,
		&job.SourceURL,
		&status,
		&optionBytes,
		&progressBytes,
		&resultBytes, // NULL => nil
		&errText,     // NULL => nil
		&job.CreatedAt,
		&job.UpdatedAt,
		&finishedAt,
	); err != nil {
		return entity.Job{}, err
	}

	job.Kind = entity.JobKind(kind)
	job.Status = entity.JobStatus(status)
	job.FinishedAt = finishedAt
	if err := json.Unmarshal(optionBytes, &job.Options); err != nil {
		return entity.Job{}, fmt.Errorf("decode options: %w", err)
	}
	if err := json.Unmarshal(progressBytes, &job.Progress); err != nil {
		return entity.Job{}, fmt.Errorf("decode progress: %w", err)
	}
	if resultBytes != nil {
		var res entity.Result
		if err := json.Unmarshal(resultBytes, &res); err != nil {
			return entity.Job{}, fmt.Errorf("decode result: %w", err)
		}
		job.Result = &res
	}
	if errText != nil {
		job.ErrorDetail = *errText
	}
	return job, nil
}
