package versioning

import (
	"context"

	"github.com/rpattn/signalcat/internal/domain"
)

// RecordStore persists one record kind inside the unit of work's transaction.
// Update and SoftDelete are conditional writes: they only succeed when the
// row's lock_version still equals expectedLock, and they increment the
// counter atomically as part of the same statement. Zero matched rows means
// another transaction won the race and the store returns a
// domain.VersionConflictError.
type RecordStore interface {
	// Get loads a live (not soft-deleted) record. Returns domain.ErrNotFound
	// when the id is unknown or the record is in the trash.
	Get(ctx context.Context, id int64) (domain.TrackedRecord, error)
	Insert(ctx context.Context, rec domain.TrackedRecord) error
	Update(ctx context.Context, rec domain.TrackedRecord, expectedLock int64) error
	SoftDelete(ctx context.Context, rec domain.TrackedRecord, expectedLock int64) error
}

// LedgerStore is the transaction-bound append surface of the version ledger.
type LedgerStore interface {
	// Latest returns the most recent snapshot and version number for a key,
	// or (nil, 0, nil) when no version exists yet.
	Latest(ctx context.Context, kind string, id int64) (domain.Snapshot, int64, error)
	Append(ctx context.Context, entry domain.VersionEntry) (domain.VersionEntry, error)
}

// Stores exposes the transaction-bound persistence surface to the unit of
// work and the change interceptor.
type Stores interface {
	Records(kind string) (RecordStore, bool)
	Ledger() LedgerStore
}
