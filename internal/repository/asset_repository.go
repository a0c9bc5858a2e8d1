package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rpattn/signalcat/internal/db"
	"github.com/rpattn/signalcat/internal/domain"
)

const assetColumns = `id, name, description,
	created_at, created_by, updated_at, updated_by, lock_version,
	is_deleted, deleted_at, deleted_by`

type assetRepository struct {
	db db.DBTX
}

// NewAssetRepository wires a repository backed by the pool (or any DBTX).
func NewAssetRepository(dbtx db.DBTX) AssetRepository {
	return &assetRepository{db: dbtx}
}

func (r *assetRepository) GetByID(ctx context.Context, id int64) (domain.Asset, error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1 AND is_deleted = FALSE`,
		id,
	)
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Asset{}, domain.ErrNotFound
		}
		return domain.Asset{}, fmt.Errorf("failed to get asset: %w", err)
	}
	ids, err := loadAssetSignalIDs(ctx, r.db, asset.ID)
	if err != nil {
		return domain.Asset{}, err
	}
	asset.SignalIDs = ids
	return asset, nil
}

func (r *assetRepository) List(ctx context.Context) ([]domain.Asset, error) {
	return r.list(ctx, false)
}

func (r *assetRepository) ListDeleted(ctx context.Context) ([]domain.Asset, error) {
	return r.list(ctx, true)
}

func (r *assetRepository) list(ctx context.Context, deleted bool) ([]domain.Asset, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+assetColumns+` FROM assets WHERE is_deleted = $1 ORDER BY id DESC`,
		deleted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := []domain.Asset{}
	for rows.Next() {
		asset, scanErr := scanAsset(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", scanErr)
		}
		assets = append(assets, asset)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", rowsErr)
	}

	for i := range assets {
		ids, err := loadAssetSignalIDs(ctx, r.db, assets[i].ID)
		if err != nil {
			return nil, err
		}
		assets[i].SignalIDs = ids
	}
	return assets, nil
}

func loadAssetSignalIDs(ctx context.Context, dbtx db.DBTX, assetID int64) ([]int64, error) {
	rows, err := dbtx.Query(
		ctx,
		`SELECT signal_id FROM asset_signals WHERE asset_id = $1 ORDER BY signal_id`,
		assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset signals: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan asset signal id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate asset signals: %w", rowsErr)
	}
	return ids, nil
}

func replaceAssetSignalIDs(ctx context.Context, dbtx db.DBTX, assetID int64, ids []int64) error {
	if _, err := dbtx.Exec(ctx, `DELETE FROM asset_signals WHERE asset_id = $1`, assetID); err != nil {
		return fmt.Errorf("failed to clear asset signals: %w", err)
	}
	for _, id := range ids {
		if _, err := dbtx.Exec(
			ctx,
			`INSERT INTO asset_signals (asset_id, signal_id) VALUES ($1, $2)`,
			assetID, id,
		); err != nil {
			return fmt.Errorf("failed to link signal %d: %w", id, err)
		}
	}
	return nil
}

func scanAsset(row pgx.Row) (domain.Asset, error) {
	var (
		asset     domain.Asset
		deletedAt pgtype.Timestamptz
		deletedBy pgtype.Text
	)
	if err := row.Scan(
		&asset.ID,
		&asset.Name,
		&asset.Description,
		&asset.CreatedAt,
		&asset.CreatedBy,
		&asset.UpdatedAt,
		&asset.UpdatedBy,
		&asset.LockVersion,
		&asset.IsDeleted,
		&deletedAt,
		&deletedBy,
	); err != nil {
		return domain.Asset{}, err
	}
	if deletedAt.Valid {
		value := deletedAt.Time
		asset.DeletedAt = &value
	}
	if deletedBy.Valid {
		value := deletedBy.String
		asset.DeletedBy = &value
	}
	return asset, nil
}
