package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
)

// AssetRepositoryPG implements domain.AssetRepository using PostgreSQL.
type AssetRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAssetRepository constructs a new asset repository instance.
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepositoryPG {
	return &AssetRepositoryPG{pool: pool}
}

const assetColumns = `id, user_id, project_id, kind, mode, source_asset_id, prompt_version, prompt_payload, storage_path, mime_type, width, height, bytes, created_at`

// Create inserts a new asset row. Assets are immutable after creation.
func (r *AssetRepositoryPG) Create(ctx context.Context, asset *domain.Asset) error {
	query := `
INSERT INTO assets (id, user_id, project_id, kind, mode, source_asset_id, prompt_version, prompt_payload, storage_path, mime_type, width, height, bytes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING created_at;
`
	return r.pool.QueryRow(ctx, query,
		asset.ID,
		asset.UserID,
		asset.ProjectID,
		asset.Kind,
		nullableString(string(asset.Mode)),
		asset.SourceAssetID,
		nullableString(asset.PromptVersion),
		nullableBytes(asset.PromptPayload),
		asset.StoragePath,
		asset.MimeType,
		asset.Width,
		asset.Height,
		asset.Bytes,
	).Scan(&asset.CreatedAt)
}

// GetByID fetches an asset by its identifier.
func (r *AssetRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1;`, id)
	return scanAsset(row)
}

// ListByUser returns the user's assets, newest first.
func (r *AssetRepositoryPG) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Asset, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
SELECT `+assetColumns+`
FROM assets
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3;
`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	return assets, rows.Err()
}

// Delete removes the asset row. Jobs referencing it keep their row with the
// input reference nulled by the foreign key.
func (r *AssetRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assets WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var a domain.Asset
	var mode, promptVersion *string
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.ProjectID,
		&a.Kind,
		&mode,
		&a.SourceAssetID,
		&promptVersion,
		&a.PromptPayload,
		&a.StoragePath,
		&a.MimeType,
		&a.Width,
		&a.Height,
		&a.Bytes,
		&a.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if mode != nil {
		a.Mode = domain.Mode(*mode)
	}
	if promptVersion != nil {
		a.PromptVersion = *promptVersion
	}
	return &a, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
