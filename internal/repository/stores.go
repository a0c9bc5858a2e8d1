package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rpattn/signalcat/internal/domain"
	"github.com/rpattn/signalcat/internal/versioning"
)

// txStores binds the record stores and the ledger to one transaction. It is
// the StoreFactory product handed to the versioning coordinator.
type txStores struct {
	tx pgx.Tx
}

// NewTxStores adapts a transaction into the unit of work's store surface.
func NewTxStores(tx pgx.Tx) versioning.Stores {
	return &txStores{tx: tx}
}

func (s *txStores) Records(kind string) (versioning.RecordStore, bool) {
	switch kind {
	case domain.KindSignal:
		return &signalStore{tx: s.tx}, true
	case domain.KindAsset:
		return &assetStore{tx: s.tx}, true
	default:
		return nil, false
	}
}

func (s *txStores) Ledger() versioning.LedgerStore {
	return &versionStore{tx: s.tx}
}

// signalStore persists signals inside a unit of work.
type signalStore struct {
	tx pgx.Tx
}

func (s *signalStore) Get(ctx context.Context, id int64) (domain.TrackedRecord, error) {
	signal, err := NewSignalRepository(s.tx).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &signal, nil
}

func (s *signalStore) Insert(ctx context.Context, rec domain.TrackedRecord) error {
	signal, err := asSignal(rec)
	if err != nil {
		return err
	}
	if err := s.tx.QueryRow(
		ctx,
		`INSERT INTO signals (frequency_from, frequency_to, modulation, power,
		        created_at, created_by, updated_at, updated_by, lock_version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		signal.FrequencyFrom, signal.FrequencyTo, signal.Modulation, signal.Power,
		signal.CreatedAt, signal.CreatedBy, signal.UpdatedAt, signal.UpdatedBy, signal.LockVersion,
	).Scan(&signal.ID); err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}
	return nil
}

func (s *signalStore) Update(ctx context.Context, rec domain.TrackedRecord, expectedLock int64) error {
	signal, err := asSignal(rec)
	if err != nil {
		return err
	}
	// Conditional write: only touch the row if its lock counter still holds
	// the value read at load time, bumping it in the same statement.
	err = s.tx.QueryRow(
		ctx,
		`UPDATE signals
		 SET frequency_from = $1, frequency_to = $2, modulation = $3, power = $4,
		     updated_at = $5, updated_by = $6, lock_version = lock_version + 1
		 WHERE id = $7 AND lock_version = $8 AND is_deleted = FALSE
		 RETURNING lock_version`,
		signal.FrequencyFrom, signal.FrequencyTo, signal.Modulation, signal.Power,
		signal.UpdatedAt, signal.UpdatedBy,
		signal.ID, expectedLock,
	).Scan(&signal.LockVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.VersionConflictError{Kind: domain.KindSignal, RecordID: signal.ID, Expected: expectedLock}
		}
		return fmt.Errorf("failed to update signal: %w", err)
	}
	return nil
}

func (s *signalStore) SoftDelete(ctx context.Context, rec domain.TrackedRecord, expectedLock int64) error {
	signal, err := asSignal(rec)
	if err != nil {
		return err
	}
	err = s.tx.QueryRow(
		ctx,
		`UPDATE signals
		 SET is_deleted = TRUE, deleted_at = $1, deleted_by = $2,
		     updated_at = $1, updated_by = $2, lock_version = lock_version + 1
		 WHERE id = $3 AND lock_version = $4 AND is_deleted = FALSE
		 RETURNING lock_version`,
		signal.DeletedAt, signal.DeletedBy,
		signal.ID, expectedLock,
	).Scan(&signal.LockVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.VersionConflictError{Kind: domain.KindSignal, RecordID: signal.ID, Expected: expectedLock}
		}
		return fmt.Errorf("failed to soft delete signal: %w", err)
	}
	return nil
}

// assetStore persists assets and their signal associations inside a unit of
// work.
type assetStore struct {
	tx pgx.Tx
}

func (s *assetStore) Get(ctx context.Context, id int64) (domain.TrackedRecord, error) {
	asset, err := NewAssetRepository(s.tx).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (s *assetStore) Insert(ctx context.Context, rec domain.TrackedRecord) error {
	asset, err := asAsset(rec)
	if err != nil {
		return err
	}
	if err := s.tx.QueryRow(
		ctx,
		`INSERT INTO assets (name, description,
		        created_at, created_by, updated_at, updated_by, lock_version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		asset.Name, asset.Description,
		asset.CreatedAt, asset.CreatedBy, asset.UpdatedAt, asset.UpdatedBy, asset.LockVersion,
	).Scan(&asset.ID); err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}
	return replaceAssetSignalIDs(ctx, s.tx, asset.ID, asset.SignalIDs)
}

func (s *assetStore) Update(ctx context.Context, rec domain.TrackedRecord, expectedLock int64) error {
	asset, err := asAsset(rec)
	if err != nil {
		return err
	}
	err = s.tx.QueryRow(
		ctx,
		`UPDATE assets
		 SET name = $1, description = $2,
		     updated_at = $3, updated_by = $4, lock_version = lock_version + 1
		 WHERE id = $5 AND lock_version = $6 AND is_deleted = FALSE
		 RETURNING lock_version`,
		asset.Name, asset.Description,
		asset.UpdatedAt, asset.UpdatedBy,
		asset.ID, expectedLock,
	).Scan(&asset.LockVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.VersionConflictError{Kind: domain.KindAsset, RecordID: asset.ID, Expected: expectedLock}
		}
		return fmt.Errorf("failed to update asset: %w", err)
	}
	return replaceAssetSignalIDs(ctx, s.tx, asset.ID, asset.SignalIDs)
}

func (s *assetStore) SoftDelete(ctx context.Context, rec domain.TrackedRecord, expectedLock int64) error {
	asset, err := asAsset(rec)
	if err != nil {
		return err
	}
	// Associations stay in place so history and the trash view remain whole.
	err = s.tx.QueryRow(
		ctx,
		`UPDATE assets
		 SET is_deleted = TRUE, deleted_at = $1, deleted_by = $2,
		     updated_at = $1, updated_by = $2, lock_version = lock_version + 1
		 WHERE id = $3 AND lock_version = $4 AND is_deleted = FALSE
		 RETURNING lock_version`,
		asset.DeletedAt, asset.DeletedBy,
		asset.ID, expectedLock,
	).Scan(&asset.LockVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.VersionConflictError{Kind: domain.KindAsset, RecordID: asset.ID, Expected: expectedLock}
		}
		return fmt.Errorf("failed to soft delete asset: %w", err)
	}
	return nil
}

// versionStore is the transaction-bound append side of the ledger.
type versionStore struct {
	tx pgx.Tx
}

func (s *versionStore) Latest(ctx context.Context, kind string, id int64) (domain.Snapshot, int64, error) {
	var (
		snapshotJSON json.RawMessage
		version      int64
	)
	err := s.tx.QueryRow(
		ctx,
		`SELECT snapshot, version FROM entity_versions
		 WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY version DESC
		 LIMIT 1`,
		kind, id,
	).Scan(&snapshotJSON, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to load latest version: %w", err)
	}
	snapshot, err := domain.DecodeSnapshot(snapshotJSON)
	if err != nil {
		return nil, 0, fmt.Errorf("decode latest snapshot: %w", err)
	}
	return snapshot, version, nil
}

func (s *versionStore) Append(ctx context.Context, entry domain.VersionEntry) (domain.VersionEntry, error) {
	snapshotJSON, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return domain.VersionEntry{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	diffJSON, err := json.Marshal(entry.Diff)
	if err != nil {
		return domain.VersionEntry{}, fmt.Errorf("failed to marshal diff: %w", err)
	}
	if err := s.tx.QueryRow(
		ctx,
		`INSERT INTO entity_versions (entity_type, entity_id, version, operation,
		        snapshot, diff, hash, changed_at, changed_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		entry.EntityType, entry.EntityID, entry.Version, entry.Operation,
		snapshotJSON, diffJSON, entry.Hash, entry.ChangedAt, entry.ChangedBy,
	).Scan(&entry.ID); err != nil {
		return domain.VersionEntry{}, fmt.Errorf("failed to append version entry: %w", err)
	}
	return entry, nil
}

func asSignal(rec domain.TrackedRecord) (*domain.Signal, error) {
	signal, ok := rec.(*domain.Signal)
	if !ok {
		return nil, fmt.Errorf("expected *domain.Signal, got %T", rec)
	}
	return signal, nil
}

func asAsset(rec domain.TrackedRecord) (*domain.Asset, error) {
	asset, ok := rec.(*domain.Asset)
	if !ok {
		return nil, fmt.Errorf("expected *domain.Asset, got %T", rec)
	}
	return asset, nil
}
