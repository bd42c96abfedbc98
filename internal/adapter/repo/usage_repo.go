package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
)

// UsageCounterRepositoryPG implements domain.UsageCounterRepository.
type UsageCounterRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUsageCounterRepository creates a usage-counter repository.
func NewUsageCounterRepository(pool *pgxpool.Pool) *UsageCounterRepositoryPG {
	return &UsageCounterRepositoryPG{pool: pool}
}

// Get returns the count for the exact (user, type, period) row, zero when the
// row does not exist yet. Rows are created lazily by Increment.
func (r *UsageCounterRepositoryPG) Get(ctx context.Context, userID string, t domain.CounterType, periodStart time.Time) (int, error) {
	row := r.pool.QueryRow(ctx, `
SELECT count
FROM usage_counters
WHERE user_id = $1 AND counter_type = $2 AND period_start = $3;
`, userID, t, periodStart)
	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// Increment bumps the period's counter in a single atomic upsert, creating
// the row on first use. Concurrent increments cannot undercount.
func (r *UsageCounterRepositoryPG) Increment(ctx context.Context, userID string, t domain.CounterType, periodStart time.Time) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO usage_counters (user_id, counter_type, period_start, count)
VALUES ($1, $2, $3, 1)
ON CONFLICT (user_id, counter_type, period_start)
DO UPDATE SET count = usage_counters.count + 1;
`, userID, t, periodStart)
	return err
}

// DeleteOlderThan sweeps counter rows whose period started before the cutoff.
func (r *UsageCounterRepositoryPG) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM usage_counters WHERE period_start < $1;`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
