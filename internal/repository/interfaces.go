package repository

import (
	"context"

	"github.com/rpattn/signalcat/internal/domain"
)

// SignalRepository defines the read surface for signals outside a unit of
// work. Default queries exclude soft-deleted records.
type SignalRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Signal, error)
	List(ctx context.Context) ([]domain.Signal, error)
	ListDeleted(ctx context.Context) ([]domain.Signal, error)
	// FilterLiveIDs returns the subset of ids that exist and are not
	// soft-deleted, used to resolve asset associations.
	FilterLiveIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// AssetRepository defines the read surface for assets outside a unit of work.
type AssetRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Asset, error)
	List(ctx context.Context) ([]domain.Asset, error)
	ListDeleted(ctx context.Context) ([]domain.Asset, error)
}

// VersionRepository defines the query surface of the version ledger. The
// ledger is append-only; no update or delete operation is exposed anywhere.
type VersionRepository interface {
	// ListByRecord returns all versions for a key, most recent first.
	ListByRecord(ctx context.Context, kind string, id int64) ([]domain.VersionEntry, error)
	// ListRecent returns the global change feed ordered by changed_at
	// descending.
	ListRecent(ctx context.Context, limit int) ([]domain.VersionEntry, error)
}
