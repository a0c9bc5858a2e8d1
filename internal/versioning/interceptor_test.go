package versioning

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/rpattn/signalcat/internal/domain"
)

// memStores is an in-memory Stores implementation mimicking the database
// semantics: conditional writes on the lock counter, JSON round-tripped
// ledger snapshots.
type memStores struct {
	signals map[int64]*domain.Signal
	nextID  int64
	ledger  []domain.VersionEntry
}

func newMemStores() *memStores {
	return &memStores{signals: map[int64]*domain.Signal{}, nextID: 1}
}

func (m *memStores) Records(kind string) (RecordStore, bool) {
	if kind != domain.KindSignal {
		return nil, false
	}
	return &memSignalStore{m: m}, true
}

func (m *memStores) Ledger() LedgerStore { return &memLedger{m: m} }

type memSignalStore struct {
	m *memStores
}

func (s *memSignalStore) Get(ctx context.Context, id int64) (domain.TrackedRecord, error) {
	signal, ok := s.m.signals[id]
	if !ok || signal.IsDeleted {
		return nil, domain.ErrNotFound
	}
	copied := *signal
	return &copied, nil
}

func (s *memSignalStore) Insert(ctx context.Context, rec domain.TrackedRecord) error {
	signal := rec.(*domain.Signal)
	signal.ID = s.m.nextID
	s.m.nextID++
	copied := *signal
	s.m.signals[signal.ID] = &copied
	return nil
}

func (s *memSignalStore) Update(ctx context.Context, rec domain.TrackedRecord, expectedLock int64) error {
	signal := rec.(*domain.Signal)
	stored, ok := s.m.signals[signal.ID]
	if !ok || stored.IsDeleted || stored.LockVersion != expectedLock {
		return &domain.VersionConflictError{Kind: domain.KindSignal, RecordID: signal.ID, Expected: expectedLock}
	}
	signal.LockVersion = expectedLock + 1
	copied := *signal
	s.m.signals[signal.ID] = &copied
	return nil
}

func (s *memSignalStore) SoftDelete(ctx context.Context, rec domain.TrackedRecord, expectedLock int64) error {
	signal := rec.(*domain.Signal)
	stored, ok := s.m.signals[signal.ID]
	if !ok || stored.IsDeleted || stored.LockVersion != expectedLock {
		return &domain.VersionConflictError{Kind: domain.KindSignal, RecordID: signal.ID, Expected: expectedLock}
	}
	signal.LockVersion = expectedLock + 1
	copied := *signal
	s.m.signals[signal.ID] = &copied
	return nil
}

type memLedger struct {
	m *memStores
}

func (l *memLedger) Latest(ctx context.Context, kind string, id int64) (domain.Snapshot, int64, error) {
	var found *domain.VersionEntry
	for i := range l.m.ledger {
		entry := &l.m.ledger[i]
		if entry.EntityType == kind && entry.EntityID == id {
			if found == nil || entry.Version > found.Version {
				found = entry
			}
		}
	}
	if found == nil {
		return nil, 0, nil
	}
	// Round trip through JSON, matching what a JSONB column returns.
	encoded, err := json.Marshal(found.Snapshot)
	if err != nil {
		return nil, 0, err
	}
	decoded, err := domain.DecodeSnapshot(encoded)
	if err != nil {
		return nil, 0, err
	}
	return decoded, found.Version, nil
}

func (l *memLedger) Append(ctx context.Context, entry domain.VersionEntry) (domain.VersionEntry, error) {
	entry.ID = int64(len(l.m.ledger) + 1)
	l.m.ledger = append(l.m.ledger, entry)
	return entry, nil
}

func runUnit(t *testing.T, stores Stores, actor string, fn func(uow *UnitOfWork) error) *UnitOfWork {
	t.Helper()
	uow := NewUnitOfWork(actor, time.Now().UTC(), stores)
	if err := fn(uow); err != nil {
		t.Fatalf("unit of work setup failed: %v", err)
	}
	interceptor := NewChangeInterceptor()
	if err := interceptor.BeforeCommit(context.Background(), uow); err != nil {
		t.Fatalf("BeforeCommit failed: %v", err)
	}
	return uow
}

func seedSignal(t *testing.T, stores *memStores) *domain.Signal {
	t.Helper()
	signal := &domain.Signal{FrequencyFrom: 88, FrequencyTo: 108, Modulation: "FM", Power: 50}
	runUnit(t, stores, "alice", func(uow *UnitOfWork) error {
		uow.RegisterCreate(signal)
		return nil
	})
	return signal
}

func TestCreateWritesVersionOne(t *testing.T) {
	stores := newMemStores()
	signal := seedSignal(t, stores)

	if signal.LockVersion != 1 {
		t.Errorf("expected lock_version 1, got %d", signal.LockVersion)
	}
	if len(stores.ledger) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(stores.ledger))
	}
	entry := stores.ledger[0]
	if entry.Version != 1 || entry.Operation != domain.OperationCreate {
		t.Errorf("unexpected entry: v%d %s", entry.Version, entry.Operation)
	}
	if len(entry.Diff) != 0 {
		t.Errorf("create entry should carry an empty diff, got %v", entry.Diff)
	}
	if entry.ChangedBy != "alice" {
		t.Errorf("expected attribution to alice, got %q", entry.ChangedBy)
	}
	if !entry.VerifyHash() {
		t.Error("create entry hash does not verify")
	}
}

func TestUpdateAppendsDiffEntry(t *testing.T) {
	stores := newMemStores()
	signal := seedSignal(t, stores)

	loaded := *stores.signals[signal.ID]
	loaded.Power = 75
	uow := runUnit(t, stores, "bob", func(uow *UnitOfWork) error {
		uow.RegisterUpdate(&loaded, 1, nil)
		return nil
	})

	if !uow.Changed(&loaded) {
		t.Fatal("expected the update to be recorded")
	}
	if loaded.LockVersion != 2 {
		t.Errorf("expected lock_version 2, got %d", loaded.LockVersion)
	}
	if len(stores.ledger) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(stores.ledger))
	}
	entry := stores.ledger[1]
	if entry.Version != 2 || entry.Operation != domain.OperationUpdate {
		t.Errorf("unexpected entry: v%d %s", entry.Version, entry.Operation)
	}
	change, ok := entry.Diff["power"]
	if !ok || len(entry.Diff) != 1 {
		t.Fatalf("expected diff with only power, got %v", entry.Diff)
	}
	if change.Old != float64(50) || change.New != float64(75) {
		t.Errorf("unexpected transition %v -> %v", change.Old, change.New)
	}
}

func TestNoOpUpdateIsSuppressed(t *testing.T) {
	stores := newMemStores()
	signal := seedSignal(t, stores)

	loaded := *stores.signals[signal.ID]
	uow := runUnit(t, stores, "bob", func(uow *UnitOfWork) error {
		uow.RegisterUpdate(&loaded, 1, nil)
		return nil
	})

	if uow.Changed(&loaded) {
		t.Error("identical values must not count as a change")
	}
	if loaded.LockVersion != 1 {
		t.Errorf("lock_version must not advance on a no-op, got %d", loaded.LockVersion)
	}
	if len(stores.ledger) != 1 {
		t.Errorf("no ledger entry expected for a no-op, got %d entries", len(stores.ledger))
	}
}

func TestStaleLockUpdateFailsWholeUnit(t *testing.T) {
	stores := newMemStores()
	signal := seedSignal(t, stores)

	// Another writer bumps the record to lock_version 2.
	first := *stores.signals[signal.ID]
	first.Power = 60
	runUnit(t, stores, "bob", func(uow *UnitOfWork) error {
		uow.RegisterUpdate(&first, 1, nil)
		return nil
	})

	// The stale writer still holds lock_version 1.
	stale := *stores.signals[signal.ID]
	stale.LockVersion = 1
	stale.Power = 99
	uow := NewUnitOfWork("carol", time.Now().UTC(), stores)
	uow.RegisterUpdate(&stale, 1, nil)

	err := NewChangeInterceptor().BeforeCommit(context.Background(), uow)
	if err == nil {
		t.Fatal("expected a version conflict")
	}
	if !domain.IsVersionConflict(err) {
		t.Fatalf("expected VersionConflictError, got %v", err)
	}
	if len(stores.ledger) != 2 {
		t.Errorf("conflicting write must not add ledger entries, got %d", len(stores.ledger))
	}
}

func TestDeleteCapturesPreDeleteSnapshot(t *testing.T) {
	stores := newMemStores()
	signal := seedSignal(t, stores)

	loaded := *stores.signals[signal.ID]
	runUnit(t, stores, "bob", func(uow *UnitOfWork) error {
		uow.RegisterDelete(&loaded, 1)
		return nil
	})

	if !loaded.IsDeleted {
		t.Fatal("expected tombstone flag")
	}
	if len(stores.ledger) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(stores.ledger))
	}
	entry := stores.ledger[1]
	if entry.Operation != domain.OperationDelete || entry.Version != 2 {
		t.Errorf("unexpected entry: v%d %s", entry.Version, entry.Operation)
	}
	if len(entry.Diff) != 0 {
		t.Errorf("delete entry should carry an empty diff, got %v", entry.Diff)
	}
	// The snapshot shows the record as it was before the tombstone.
	if entry.Snapshot["is_deleted"] != false {
		t.Errorf("delete snapshot must capture pre-delete state, got %v", entry.Snapshot["is_deleted"])
	}
	if !entry.VerifyHash() {
		t.Error("delete entry hash does not verify")
	}
}

func TestVersionNumbersAreContiguousPerRecord(t *testing.T) {
	stores := newMemStores()
	signal := seedSignal(t, stores)

	for i := 0; i < 3; i++ {
		loaded := *stores.signals[signal.ID]
		loaded.Power = loaded.Power + 5
		runUnit(t, stores, "alice", func(uow *UnitOfWork) error {
			uow.RegisterUpdate(&loaded, loaded.LockVersion, nil)
			return nil
		})
	}

	if len(stores.ledger) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(stores.ledger))
	}
	for i, entry := range stores.ledger {
		if entry.Version != int64(i+1) {
			t.Errorf("entry %d has version %d", i, entry.Version)
		}
	}
}

func TestFieldChangeFallbackWithoutPriorVersion(t *testing.T) {
	// A record row can predate the ledger (legacy data). With no prior
	// snapshot, the interceptor trusts the caller's own change tracking.
	stores := newMemStores()
	legacy := &domain.Signal{FrequencyFrom: 88, FrequencyTo: 108, Modulation: "AM", Power: 10, LockVersion: 1}
	legacy.ID = stores.nextID
	stores.nextID++
	stored := *legacy
	stores.signals[legacy.ID] = &stored

	loaded := *stores.signals[legacy.ID]
	loaded.Modulation = "FM"
	tracked := domain.Diff{"modulation": {Old: "AM", New: "FM"}}
	runUnit(t, stores, "alice", func(uow *UnitOfWork) error {
		uow.RegisterUpdate(&loaded, 1, tracked)
		return nil
	})

	if len(stores.ledger) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(stores.ledger))
	}
	entry := stores.ledger[0]
	if entry.Version != 1 || entry.Operation != domain.OperationUpdate {
		t.Errorf("unexpected entry: v%d %s", entry.Version, entry.Operation)
	}
	if change := entry.Diff["modulation"]; change.Old != "AM" || change.New != "FM" {
		t.Errorf("fallback diff lost, got %v", entry.Diff)
	}
}

func TestFallbackDiffStoresJSONNativeValues(t *testing.T) {
	// Caller-tracked changes carry live Go values such as []int64. The ledger
	// entry must store them in the same JSON-native encoding a snapshot diff
	// would, so both strategies read back identically.
	stores := newMemStores()
	legacy := &domain.Signal{FrequencyFrom: 88, FrequencyTo: 108, Modulation: "AM", Power: 10, LockVersion: 1}
	legacy.ID = stores.nextID
	stores.nextID++
	stored := *legacy
	stores.signals[legacy.ID] = &stored

	loaded := *stores.signals[legacy.ID]
	loaded.Power = 25
	tracked := domain.Diff{
		"power":      {Old: int64(10), New: int64(25)},
		"signal_ids": {Old: []int64{2}, New: []int64{2, 5}},
	}
	runUnit(t, stores, "alice", func(uow *UnitOfWork) error {
		uow.RegisterUpdate(&loaded, 1, tracked)
		return nil
	})

	if len(stores.ledger) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(stores.ledger))
	}
	entry := stores.ledger[0]
	if change := entry.Diff["power"]; change.Old != float64(10) || change.New != float64(25) {
		t.Errorf("integer values must be stored as float64, got %T -> %T", change.Old, change.New)
	}
	change := entry.Diff["signal_ids"]
	if !reflect.DeepEqual(change.Old, []any{float64(2)}) {
		t.Errorf("unexpected old id list encoding: %#v", change.Old)
	}
	if !reflect.DeepEqual(change.New, []any{float64(2), float64(5)}) {
		t.Errorf("unexpected new id list encoding: %#v", change.New)
	}
}
