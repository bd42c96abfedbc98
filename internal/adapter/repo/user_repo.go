package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

// UpsertByEmail inserts a user on first login or refreshes their profile on
// subsequent ones. New accounts start with the credit balance passed in.
func (r *UserRepositoryPG) UpsertByEmail(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := `
INSERT INTO users (id, email, name, locale, role, plan, credit_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (email) DO UPDATE
SET name = EXCLUDED.name,
    locale = EXCLUDED.locale,
    updated_at = NOW()
RETURNING id, email, name, locale, role, plan, credit_cents, created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Locale,
		user.Role,
		user.Plan,
		user.CreditCents,
	)
	return scanUser(row)
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, email, name, locale, role, plan, credit_cents, created_at, updated_at
FROM users
WHERE id = $1;
`, id)
	return scanUser(row)
}

// AddCredits adjusts the balance by deltaCents (may be negative for admin
// corrections).
func (r *UserRepositoryPG) AddCredits(ctx context.Context, userID string, deltaCents int) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET credit_cents = credit_cents + $2,
    updated_at = NOW()
WHERE id = $1;
`, userID, deltaCents)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeductCredits subtracts amountCents only when the balance covers it. The
// guard lives in the WHERE clause so concurrent deductions cannot drive the
// balance negative.
func (r *UserRepositoryPG) DeductCredits(ctx context.Context, userID string, amountCents int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET credit_cents = credit_cents - $2,
    updated_at = NOW()
WHERE id = $1
  AND credit_cents >= $2;
`, userID, amountCents)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Locale, &u.Role, &u.Plan, &u.CreditCents, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
