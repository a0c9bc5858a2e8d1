package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rpattn/signalcat/internal/db"
	"github.com/rpattn/signalcat/internal/domain"
)

const versionColumns = `id, entity_type, entity_id, version, operation,
	snapshot, diff, hash, changed_at, changed_by`

type versionRepository struct {
	db db.DBTX
}

// NewVersionRepository wires the ledger's query surface.
func NewVersionRepository(dbtx db.DBTX) VersionRepository {
	return &versionRepository{db: dbtx}
}

func (r *versionRepository) ListByRecord(ctx context.Context, kind string, id int64) ([]domain.VersionEntry, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+versionColumns+` FROM entity_versions
		 WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY version DESC`,
		kind, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()
	return collectVersionEntries(rows)
}

func (r *versionRepository) ListRecent(ctx context.Context, limit int) ([]domain.VersionEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.Query(
		ctx,
		`SELECT `+versionColumns+` FROM entity_versions
		 ORDER BY changed_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent versions: %w", err)
	}
	defer rows.Close()
	return collectVersionEntries(rows)
}

func collectVersionEntries(rows pgx.Rows) ([]domain.VersionEntry, error) {
	entries := []domain.VersionEntry{}
	for rows.Next() {
		entry, err := scanVersionEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate version entries: %w", rowsErr)
	}
	return entries, nil
}

func scanVersionEntry(row pgx.Row) (domain.VersionEntry, error) {
	var (
		entry        domain.VersionEntry
		snapshotJSON json.RawMessage
		diffJSON     json.RawMessage
	)
	if err := row.Scan(
		&entry.ID,
		&entry.EntityType,
		&entry.EntityID,
		&entry.Version,
		&entry.Operation,
		&snapshotJSON,
		&diffJSON,
		&entry.Hash,
		&entry.ChangedAt,
		&entry.ChangedBy,
	); err != nil {
		return domain.VersionEntry{}, err
	}

	snapshot, err := domain.DecodeSnapshot(snapshotJSON)
	if err != nil {
		return domain.VersionEntry{}, fmt.Errorf("decode snapshot for version %d: %w", entry.ID, err)
	}
	entry.Snapshot = snapshot

	diff, err := domain.DecodeDiff(diffJSON)
	if err != nil {
		return domain.VersionEntry{}, fmt.Errorf("decode diff for version %d: %w", entry.ID, err)
	}
	entry.Diff = diff

	return entry, nil
}
