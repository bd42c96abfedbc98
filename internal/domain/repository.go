package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	UpsertByEmail(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	AddCredits(ctx context.Context, userID string, deltaCents int) error
	// DeductCredits subtracts the amount only when the balance covers it and
	// reports whether the deduction happened.
	DeductCredits(ctx context.Context, userID string, amountCents int) (bool, error)
}

// ProjectRepository defines persistence for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	ListByUser(ctx context.Context, userID string) ([]Project, error)
	Delete(ctx context.Context, id string) error
}

// AssetRepository handles persistence for uploaded and generated assets.
type AssetRepository interface {
	Create(ctx context.Context, asset *Asset) error
	GetByID(ctx context.Context, id string) (*Asset, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Asset, error)
	Delete(ctx context.Context, id string) error
}

// JobRepository defines persistence for generation jobs.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	GetByID(ctx context.Context, id string) (*GenerationJob, error)
	// Transition performs a guarded status update: it refuses to move a job
	// out of a terminal state and reports whether the row changed. Cost and
	// error payload are written together with the terminal transition.
	Transition(ctx context.Context, jobID string, next JobStatus, costCents int, errorJSON []byte) (bool, error)
	// ClaimQueued atomically claims the oldest queued job for processing,
	// returning ErrNotFound when the queue is empty.
	ClaimQueued(ctx context.Context) (*GenerationJob, error)
	Statistics(ctx context.Context) (*JobStatistics, error)
}

// UsageCounterRepository stores per-user rate-limit counters.
type UsageCounterRepository interface {
	// Get returns the count for the exact period row, zero when absent.
	Get(ctx context.Context, userID string, t CounterType, periodStart time.Time) (int, error)
	// Increment upserts the row and bumps it by one in a single statement.
	Increment(ctx context.Context, userID string, t CounterType, periodStart time.Time) error
	// DeleteOlderThan sweeps stale counter rows.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
