package domain

import "time"

// Operation classifies a tracked mutation.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Record kinds, matching the table names used as the ledger's entity_type.
const (
	KindSignal = "signals"
	KindAsset  = "assets"
)

// TrackedRecord is the capability set shared by every record kind whose
// mutations are versioned and lock-guarded. The snapshot/diff/ledger
// machinery operates only on this interface.
type TrackedRecord interface {
	Kind() string
	RecordID() int64
	CurrentLockVersion() int64

	// Snapshot returns the canonical versioned content of the record.
	// Audit metadata and the lock counter are never part of it.
	Snapshot() Snapshot

	// TrashLabel derives a human-readable label for the trash view from the
	// record's domain fields.
	TrashLabel() string

	IsSoftDeleted() bool

	StampCreated(at time.Time, by string)
	StampUpdated(at time.Time, by string)
	StampDeleted(at time.Time, by string)
}
