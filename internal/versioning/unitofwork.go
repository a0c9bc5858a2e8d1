package versioning

import (
	"time"

	"github.com/rpattn/signalcat/internal/domain"
)

// pendingChange is one tracked record touched inside a unit of work, waiting
// for the change interceptor to classify and materialize it at commit time.
type pendingChange struct {
	record    domain.TrackedRecord
	operation domain.Operation

	// expectedLock is the lock_version the caller observed at load time;
	// zero for creates.
	expectedLock int64

	// fieldChanges carries the in-flight change tracking of an update. It is
	// only consulted as a fallback when no prior ledger snapshot exists.
	fieldChanges domain.Diff

	// preDelete captures the record's snapshot before the tombstone flags
	// were applied, so a delete entry still carries the final content.
	preDelete domain.Snapshot

	applied bool
	entry   *domain.VersionEntry
}

// UnitOfWork collects the pending operations of one mutation request. All of
// its writes happen in a single transaction; the registered hooks run against
// it immediately before and after that transaction commits.
type UnitOfWork struct {
	actor   string
	now     time.Time
	stores  Stores
	pending []*pendingChange
}

// NewUnitOfWork is used by the coordinator and by engine tests; application
// code receives a unit of work from Coordinator.Run.
func NewUnitOfWork(actor string, now time.Time, stores Stores) *UnitOfWork {
	return &UnitOfWork{actor: actor, now: now, stores: stores}
}

func (u *UnitOfWork) Actor() string  { return u.actor }
func (u *UnitOfWork) Now() time.Time { return u.now }
func (u *UnitOfWork) Stores() Stores { return u.stores }

// RegisterCreate schedules a new record for insertion and a version 1 ledger
// entry.
func (u *UnitOfWork) RegisterCreate(rec domain.TrackedRecord) {
	u.pending = append(u.pending, &pendingChange{
		record:    rec,
		operation: domain.OperationCreate,
	})
}

// RegisterUpdate schedules an in-memory mutation for a conditional write.
// fieldChanges is the caller's own change tracking of the fields it touched.
func (u *UnitOfWork) RegisterUpdate(rec domain.TrackedRecord, expectedLock int64, fieldChanges domain.Diff) {
	u.pending = append(u.pending, &pendingChange{
		record:       rec,
		operation:    domain.OperationUpdate,
		expectedLock: expectedLock,
		fieldChanges: fieldChanges,
	})
}

// RegisterDelete schedules a soft delete. The record's snapshot is captured
// now, before the tombstone flags are stamped.
func (u *UnitOfWork) RegisterDelete(rec domain.TrackedRecord, expectedLock int64) {
	u.pending = append(u.pending, &pendingChange{
		record:       rec,
		operation:    domain.OperationDelete,
		expectedLock: expectedLock,
		preDelete:    rec.Snapshot(),
	})
}

// Changed reports whether a version entry was written for rec. A registered
// update whose diff computed to empty leaves this false.
func (u *UnitOfWork) Changed(rec domain.TrackedRecord) bool {
	for _, change := range u.pending {
		if change.record == rec {
			return change.applied
		}
	}
	return false
}

// Entries returns the ledger entries materialized by this unit of work.
func (u *UnitOfWork) Entries() []domain.VersionEntry {
	entries := make([]domain.VersionEntry, 0, len(u.pending))
	for _, change := range u.pending {
		if change.entry != nil {
			entries = append(entries, *change.entry)
		}
	}
	return entries
}
