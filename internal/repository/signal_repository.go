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

const signalColumns = `id, frequency_from, frequency_to, modulation, power,
	created_at, created_by, updated_at, updated_by, lock_version,
	is_deleted, deleted_at, deleted_by`

type signalRepository struct {
	db db.DBTX
}

// NewSignalRepository wires a repository backed by the pool (or any DBTX).
func NewSignalRepository(dbtx db.DBTX) SignalRepository {
	return &signalRepository{db: dbtx}
}

func (r *signalRepository) GetByID(ctx context.Context, id int64) (domain.Signal, error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT `+signalColumns+` FROM signals WHERE id = $1 AND is_deleted = FALSE`,
		id,
	)
	signal, err := scanSignal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Signal{}, domain.ErrNotFound
		}
		return domain.Signal{}, fmt.Errorf("failed to get signal: %w", err)
	}
	return signal, nil
}

func (r *signalRepository) List(ctx context.Context) ([]domain.Signal, error) {
	return r.list(ctx, false)
}

func (r *signalRepository) ListDeleted(ctx context.Context) ([]domain.Signal, error) {
	return r.list(ctx, true)
}

func (r *signalRepository) list(ctx context.Context, deleted bool) ([]domain.Signal, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+signalColumns+` FROM signals WHERE is_deleted = $1 ORDER BY id DESC`,
		deleted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	defer rows.Close()

	signals := []domain.Signal{}
	for rows.Next() {
		signal, scanErr := scanSignal(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", scanErr)
		}
		signals = append(signals, signal)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate signals: %w", rowsErr)
	}
	return signals, nil
}

func (r *signalRepository) FilterLiveIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	rows, err := r.db.Query(
		ctx,
		`SELECT id FROM signals WHERE id = ANY($1) AND is_deleted = FALSE ORDER BY id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to filter signal ids: %w", err)
	}
	defer rows.Close()

	live := []int64{}
	for rows.Next() {
		var id int64
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan signal id: %w", scanErr)
		}
		live = append(live, id)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate signal ids: %w", rowsErr)
	}
	return live, nil
}

func scanSignal(row pgx.Row) (domain.Signal, error) {
	var (
		signal    domain.Signal
		deletedAt pgtype.Timestamptz
		deletedBy pgtype.Text
	)
	if err := row.Scan(
		&signal.ID,
		&signal.FrequencyFrom,
		&signal.FrequencyTo,
		&signal.Modulation,
		&signal.Power,
		&signal.CreatedAt,
		&signal.CreatedBy,
		&signal.UpdatedAt,
		&signal.UpdatedBy,
		&signal.LockVersion,
		&signal.IsDeleted,
		&deletedAt,
		&deletedBy,
	); err != nil {
		return domain.Signal{}, err
	}
	if deletedAt.Valid {
		value := deletedAt.Time
		signal.DeletedAt = &value
	}
	if deletedBy.Valid {
		value := deletedBy.String
		signal.DeletedBy = &value
	}
	return signal, nil
}
