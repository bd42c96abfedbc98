package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

const jobColumns = `id, user_id, project_id, status, mode, input_asset_id, prompt_inputs, error, cost_cents, created_at, updated_at`

// Create inserts a new job record in the queued state.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	query := `
INSERT INTO generation_jobs (id, user_id, project_id, status, mode, input_asset_id, prompt_inputs)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at;
`
	return r.pool.QueryRow(ctx, query,
		job.ID,
		job.UserID,
		job.ProjectID,
		job.Status,
		job.Mode,
		job.InputAssetID,
		nullableBytes(job.PromptInputs),
	).Scan(&job.CreatedAt, &job.UpdatedAt)
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, id string) (*domain.GenerationJob, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM generation_jobs WHERE id = $1;`, id)
	return scanJob(row)
}

// Transition performs the guarded status update. The WHERE clause excludes
// terminal rows, so a transition attempt against a succeeded or failed job
// changes nothing and returns false.
func (r *JobRepositoryPG) Transition(ctx context.Context, jobID string, next domain.JobStatus, costCents int, errorJSON []byte) (bool, error) {
	query := `
UPDATE generation_jobs
SET status = $2,
    cost_cents = CASE WHEN $2 = 'succeeded' THEN $3 ELSE cost_cents END,
    error = COALESCE($4, error),
    updated_at = NOW()
WHERE id = $1
  AND status NOT IN ('succeeded', 'failed');
`
	tag, err := r.pool.Exec(ctx, query, jobID, next, costCents, nullableBytes(errorJSON))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ClaimQueued picks the oldest queued job and moves it to running in one
// statement. SKIP LOCKED keeps concurrent workers from claiming the same row.
func (r *JobRepositoryPG) ClaimQueued(ctx context.Context) (*domain.GenerationJob, error) {
	query := `
UPDATE generation_jobs
SET status = 'running',
    updated_at = NOW()
WHERE id = (
  SELECT id
  FROM generation_jobs
  WHERE status = 'queued'
  ORDER BY created_at ASC
  FOR UPDATE SKIP LOCKED
  LIMIT 1
)
RETURNING ` + jobColumns + `;
`
	row := r.pool.QueryRow(ctx, query)
	return scanJob(row)
}

// Statistics aggregates job counts for the admin dashboard.
func (r *JobRepositoryPG) Statistics(ctx context.Context) (*domain.JobStatistics, error) {
	stats := &domain.JobStatistics{
		ByStatus: make(map[domain.JobStatus]int64),
		ByMode:   make(map[domain.Mode]int64),
	}

	rows, err := r.pool.Query(ctx, `
SELECT status, mode, COUNT(*), COALESCE(SUM(cost_cents), 0)
FROM generation_jobs
GROUP BY status, mode;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.JobStatus
		var mode domain.Mode
		var count, cost int64
		if err := rows.Scan(&status, &mode, &count, &cost); err != nil {
			return nil, err
		}
		stats.TotalJobs += count
		stats.ByStatus[status] += count
		stats.ByMode[mode] += count
		if status == domain.JobStatusSucceeded {
			stats.RevenueCents += cost
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
SELECT
  COUNT(*) FILTER (WHERE status = 'succeeded' AND updated_at > NOW() - INTERVAL '24 hours'),
  COUNT(*) FILTER (WHERE status = 'failed' AND updated_at > NOW() - INTERVAL '24 hours')
FROM generation_jobs;
`)
	if err := row.Scan(&stats.SucceededLast, &stats.FailedLast); err != nil {
		return nil, err
	}
	return stats, nil
}

func scanJob(row pgx.Row) (*domain.GenerationJob, error) {
	var j domain.GenerationJob
	if err := row.Scan(
		&j.ID,
		&j.UserID,
		&j.ProjectID,
		&j.Status,
		&j.Mode,
		&j.InputAssetID,
		&j.PromptInputs,
		&j.Error,
		&j.CostCents,
		&j.CreatedAt,
		&j.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}
