package versioning

import (
	"context"
	"fmt"
	"log"

	"github.com/rpattn/signalcat/internal/domain"
)

// ChangeInterceptor turns the pending operations of a unit of work into
// durable record writes plus version ledger entries. It runs as a BeforeCommit
// hook, so everything it does is part of the mutation's own transaction: a
// record is never durably mutated without its ledger entry, and vice versa.
type ChangeInterceptor struct{}

func NewChangeInterceptor() *ChangeInterceptor { return &ChangeInterceptor{} }

func (ci *ChangeInterceptor) BeforeCommit(ctx context.Context, uow *UnitOfWork) error {
	for _, change := range uow.pending {
		if err := ci.flush(ctx, uow, change); err != nil {
			return err
		}
	}
	return nil
}

func (ci *ChangeInterceptor) AfterCommit(ctx context.Context, uow *UnitOfWork) {
	for _, entry := range uow.Entries() {
		log.Printf("[versioning] %s #%d %s -> v%d by %s", entry.EntityType, entry.EntityID, entry.Operation, entry.Version, entry.ChangedBy)
	}
}

func (ci *ChangeInterceptor) flush(ctx context.Context, uow *UnitOfWork, change *pendingChange) error {
	record := change.record
	store, ok := uow.stores.Records(record.Kind())
	if !ok {
		return fmt.Errorf("no record store registered for kind %q", record.Kind())
	}
	ledger := uow.stores.Ledger()

	switch change.operation {
	case domain.OperationCreate:
		record.StampCreated(uow.now, uow.actor)
		if err := store.Insert(ctx, record); err != nil {
			return err
		}
		return ci.appendEntry(ctx, uow, change, ledger, domain.OperationCreate, record.Snapshot(), domain.Diff{})

	case domain.OperationUpdate:
		current := record.Snapshot()
		previous, _, err := ledger.Latest(ctx, record.Kind(), record.RecordID())
		if err != nil {
			return fmt.Errorf("load previous snapshot: %w", err)
		}

		var diff domain.Diff
		if previous != nil {
			diff = domain.DiffSnapshots(previous, current)
		} else {
			// No prior version exists yet; fall back to the mutation's own
			// change tracking, normalized to the same JSON-native encoding a
			// snapshot diff carries.
			diff = change.fieldChanges.Canonicalize()
		}
		if len(diff) == 0 {
			// No-op suppression: identical values must not advance the lock
			// counter or create history.
			return nil
		}

		record.StampUpdated(uow.now, uow.actor)
		if err := store.Update(ctx, record, change.expectedLock); err != nil {
			return err
		}
		return ci.appendEntry(ctx, uow, change, ledger, domain.OperationUpdate, current, diff)

	case domain.OperationDelete:
		record.StampDeleted(uow.now, uow.actor)
		if err := store.SoftDelete(ctx, record, change.expectedLock); err != nil {
			return err
		}
		return ci.appendEntry(ctx, uow, change, ledger, domain.OperationDelete, change.preDelete, domain.Diff{})

	default:
		return fmt.Errorf("unknown operation %q", change.operation)
	}
}

func (ci *ChangeInterceptor) appendEntry(
	ctx context.Context,
	uow *UnitOfWork,
	change *pendingChange,
	ledger LedgerStore,
	operation domain.Operation,
	snapshot domain.Snapshot,
	diff domain.Diff,
) error {
	record := change.record

	// max(existing versions) + 1, inside the same transaction as the record
	// write. The lock guard has already serialized writers for this key, so
	// the assignment cannot race.
	_, latest, err := ledger.Latest(ctx, record.Kind(), record.RecordID())
	if err != nil {
		return fmt.Errorf("compute next version: %w", err)
	}

	entry := domain.VersionEntry{
		EntityType: record.Kind(),
		EntityID:   record.RecordID(),
		Version:    latest + 1,
		Operation:  operation,
		Snapshot:   snapshot,
		Diff:       diff,
		Hash:       snapshot.Hash(),
		ChangedAt:  uow.now,
		ChangedBy:  uow.actor,
	}

	stored, err := ledger.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("append version entry: %w", err)
	}

	change.applied = true
	change.entry = &stored
	return nil
}
