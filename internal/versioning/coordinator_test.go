package versioning

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/rpattn/signalcat/internal/domain"
)

// fakeTxRunner stands in for db.Connection: a nil return from fn commits,
// anything else rolls back.
type fakeTxRunner struct {
	begun      int
	committed  int
	rolledBack int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	f.begun++
	if err := fn(nil); err != nil {
		f.rolledBack++
		return err
	}
	f.committed++
	return nil
}

// commitObserver flushes changes like the interceptor and records whether the
// transaction was already durable when AfterCommit fired.
type commitObserver struct {
	interceptor *ChangeInterceptor
	runner      *fakeTxRunner
	afterRuns   int
	durable     bool
}

func (o *commitObserver) BeforeCommit(ctx context.Context, uow *UnitOfWork) error {
	return o.interceptor.BeforeCommit(ctx, uow)
}

func (o *commitObserver) AfterCommit(ctx context.Context, uow *UnitOfWork) {
	o.afterRuns++
	o.durable = o.runner.committed == 1
}

func TestCoordinatorCommitsThroughTxRunner(t *testing.T) {
	stores := newMemStores()
	runner := &fakeTxRunner{}
	observer := &commitObserver{interceptor: NewChangeInterceptor(), runner: runner}
	coordinator := NewCoordinator(runner, func(tx pgx.Tx) Stores { return stores }, observer)

	signal := &domain.Signal{FrequencyFrom: 88, FrequencyTo: 108, Modulation: "FM", Power: 50}
	err := coordinator.Run(context.Background(), "alice", func(ctx context.Context, uow *UnitOfWork) error {
		uow.RegisterCreate(signal)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if runner.begun != 1 || runner.committed != 1 {
		t.Errorf("expected one committed transaction, begun=%d committed=%d", runner.begun, runner.committed)
	}
	if len(stores.ledger) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(stores.ledger))
	}
	if observer.afterRuns != 1 {
		t.Fatalf("AfterCommit ran %d times, want 1", observer.afterRuns)
	}
	if !observer.durable {
		t.Error("AfterCommit must only run once the transaction is durable")
	}
}

func TestCoordinatorRollsBackOnConflict(t *testing.T) {
	stores := newMemStores()
	signal := seedSignal(t, stores)

	runner := &fakeTxRunner{}
	observer := &commitObserver{interceptor: NewChangeInterceptor(), runner: runner}
	coordinator := NewCoordinator(runner, func(tx pgx.Tx) Stores { return stores }, observer)

	loaded := *stores.signals[signal.ID]
	loaded.Power = 99
	err := coordinator.Run(context.Background(), "carol", func(ctx context.Context, uow *UnitOfWork) error {
		uow.RegisterUpdate(&loaded, 5, nil)
		return nil
	})
	if !domain.IsVersionConflict(err) {
		t.Fatalf("expected VersionConflictError, got %v", err)
	}
	if runner.committed != 0 || runner.rolledBack != 1 {
		t.Errorf("conflict must roll the transaction back, committed=%d rolledBack=%d", runner.committed, runner.rolledBack)
	}
	if observer.afterRuns != 0 {
		t.Error("AfterCommit must not run for a rolled back unit")
	}
	if len(stores.ledger) != 1 {
		t.Errorf("rolled back unit must not add ledger entries, got %d", len(stores.ledger))
	}
}
