package versioning

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Hook receives the unit-of-work extension points around transaction commit.
// BeforeCommit runs inside the transaction; returning an error rolls the
// whole unit of work back. AfterCommit runs once the transaction is durable.
type Hook interface {
	BeforeCommit(ctx context.Context, uow *UnitOfWork) error
	AfterCommit(ctx context.Context, uow *UnitOfWork)
}

// StoreFactory binds the record stores and the ledger to a transaction.
type StoreFactory func(tx pgx.Tx) Stores

// TxRunner executes a function inside a single database transaction,
// committing when it returns nil and rolling back otherwise. *db.Connection
// provides this.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
}

// Coordinator runs each mutation request as one unit of work: load, validate
// and mutate inside fn, then the registered hooks flush pending changes, then
// commit. Contention between concurrent units of work is resolved entirely by
// the store's conditional writes, never by an in-process lock.
type Coordinator struct {
	db      TxRunner
	factory StoreFactory
	hooks   []Hook
	now     func() time.Time
}

func NewCoordinator(db TxRunner, factory StoreFactory, hooks ...Hook) *Coordinator {
	return &Coordinator{
		db:      db,
		factory: factory,
		hooks:   hooks,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run executes fn within a transaction-scoped unit of work acting as actor.
// Either the record mutation and its ledger entries all commit, or none do.
// AfterCommit hooks only run once the transaction is durable.
func (c *Coordinator) Run(ctx context.Context, actor string, fn func(ctx context.Context, uow *UnitOfWork) error) error {
	var uow *UnitOfWork
	err := c.db.WithTx(ctx, func(tx pgx.Tx) error {
		uow = NewUnitOfWork(actor, c.now(), c.factory(tx))
		if err := fn(ctx, uow); err != nil {
			return err
		}
		for _, hook := range c.hooks {
			if err := hook.BeforeCommit(ctx, uow); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, hook := range c.hooks {
		hook.AfterCommit(ctx, uow)
	}
	return nil
}
