package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rpattn/signalcat/internal/domain"
	"github.com/rpattn/signalcat/internal/repository"
	"github.com/rpattn/signalcat/internal/versioning"
)

// txRunner is what the service needs from the versioning coordinator.
type txRunner interface {
	Run(ctx context.Context, actor string, fn func(ctx context.Context, uow *versioning.UnitOfWork) error) error
}

// Service implements the catalog operations: CRUD over signals and assets
// with optimistic locking, the trash view, and the version history queries.
// Every mutation runs as one unit of work; the change interceptor owns the
// ledger writes.
type Service struct {
	runner   txRunner
	signals  repository.SignalRepository
	assets   repository.AssetRepository
	versions repository.VersionRepository
}

func NewService(
	runner txRunner,
	signals repository.SignalRepository,
	assets repository.AssetRepository,
	versions repository.VersionRepository,
) *Service {
	return &Service{
		runner:   runner,
		signals:  signals,
		assets:   assets,
		versions: versions,
	}
}

// SignalInput carries the fields of a signal create request.
type SignalInput struct {
	FrequencyFrom float64
	FrequencyTo   float64
	Modulation    string
	Power         float64
}

// SignalPatch carries a partial update; nil fields are left unchanged.
type SignalPatch struct {
	FrequencyFrom *float64
	FrequencyTo   *float64
	Modulation    *string
	Power         *float64
}

// AssetInput carries the fields of an asset create request.
type AssetInput struct {
	Name        string
	Description string
	SignalIDs   []int64
}

// AssetPatch carries a partial update; nil fields are left unchanged. A nil
// SignalIDs slice keeps the current association set.
type AssetPatch struct {
	Name        *string
	Description *string
	SignalIDs   []int64
}

// TrashItem is one soft-deleted record in the trash view.
type TrashItem struct {
	EntityType string     `json:"entity_type"`
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	DeletedAt  *time.Time `json:"deleted_at"`
	DeletedBy  *string    `json:"deleted_by"`
}

// ChangeFeedItem is one global feed entry plus its derived description.
type ChangeFeedItem struct {
	domain.VersionEntry
	Details []string `json:"details"`
}

func (s *Service) CreateSignal(ctx context.Context, actor string, input SignalInput) (domain.Signal, error) {
	signal := &domain.Signal{
		FrequencyFrom: input.FrequencyFrom,
		FrequencyTo:   input.FrequencyTo,
		Modulation:    input.Modulation,
		Power:         input.Power,
	}
	if err := signal.Validate(); err != nil {
		return domain.Signal{}, err
	}
	err := s.runner.Run(ctx, actor, func(ctx context.Context, uow *versioning.UnitOfWork) error {
		uow.RegisterCreate(signal)
		return nil
	})
	if err != nil {
		return domain.Signal{}, err
	}
	return *signal, nil
}

// UpdateSignal applies a partial update guarded by expectedVersion. The
// returned bool reports whether anything actually changed; writing back
// identical values is a recognized no-op.
func (s *Service) UpdateSignal(ctx context.Context, actor string, id int64, expectedVersion int64, patch SignalPatch) (domain.Signal, bool, error) {
	var (
		signal  *domain.Signal
		changed bool
	)
	err := s.runner.Run(ctx, actor, func(ctx context.Context, uow *versioning.UnitOfWork) error {
		rec, err := s.loadForMutation(ctx, uow, domain.KindSignal, id, expectedVersion)
		if err != nil {
			return err
		}
		signal = rec.(*domain.Signal)

		fieldChanges := applySignalPatch(signal, patch)
		if err := signal.Validate(); err != nil {
			return err
		}

		uow.RegisterUpdate(signal, expectedVersion, fieldChanges)
		return nil
	})
	if err != nil {
		return domain.Signal{}, false, err
	}
	changed = signal.LockVersion != expectedVersion
	return *signal, changed, nil
}

func (s *Service) DeleteSignal(ctx context.Context, actor string, id int64, expectedVersion int64) error {
	return s.runner.Run(ctx, actor, func(ctx context.Context, uow *versioning.UnitOfWork) error {
		rec, err := s.loadForMutation(ctx, uow, domain.KindSignal, id, expectedVersion)
		if err != nil {
			return err
		}
		uow.RegisterDelete(rec, expectedVersion)
		return nil
	})
}

func (s *Service) GetSignal(ctx context.Context, id int64) (domain.Signal, error) {
	return s.signals.GetByID(ctx, id)
}

func (s *Service) ListSignals(ctx context.Context) ([]domain.Signal, error) {
	return s.signals.List(ctx)
}

func (s *Service) CreateAsset(ctx context.Context, actor string, input AssetInput) (domain.Asset, error) {
	asset := &domain.Asset{
		Name:        input.Name,
		Description: input.Description,
	}
	asset.SetSignalIDs(input.SignalIDs)
	if err := asset.Validate(); err != nil {
		return domain.Asset{}, err
	}
	if err := s.checkSignalRefs(ctx, asset.SignalIDs); err != nil {
		return domain.Asset{}, err
	}
	err := s.runner.Run(ctx, actor, func(ctx context.Context, uow *versioning.UnitOfWork) error {
		uow.RegisterCreate(asset)
		return nil
	})
	if err != nil {
		return domain.Asset{}, err
	}
	return *asset, nil
}

func (s *Service) UpdateAsset(ctx context.Context, actor string, id int64, expectedVersion int64, patch AssetPatch) (domain.Asset, bool, error) {
	if patch.SignalIDs != nil {
		if err := s.checkSignalRefs(ctx, patch.SignalIDs); err != nil {
			return domain.Asset{}, false, err
		}
	}
	var asset *domain.Asset
	err := s.runner.Run(ctx, actor, func(ctx context.Context, uow *versioning.UnitOfWork) error {
		rec, err := s.loadForMutation(ctx, uow, domain.KindAsset, id, expectedVersion)
		if err != nil {
			return err
		}
		asset = rec.(*domain.Asset)

		fieldChanges := applyAssetPatch(asset, patch)
		if err := asset.Validate(); err != nil {
			return err
		}

		uow.RegisterUpdate(asset, expectedVersion, fieldChanges)
		return nil
	})
	if err != nil {
		return domain.Asset{}, false, err
	}
	return *asset, asset.LockVersion != expectedVersion, nil
}

func (s *Service) DeleteAsset(ctx context.Context, actor string, id int64, expectedVersion int64) error {
	return s.runner.Run(ctx, actor, func(ctx context.Context, uow *versioning.UnitOfWork) error {
		rec, err := s.loadForMutation(ctx, uow, domain.KindAsset, id, expectedVersion)
		if err != nil {
			return err
		}
		uow.RegisterDelete(rec, expectedVersion)
		return nil
	})
}

func (s *Service) GetAsset(ctx context.Context, id int64) (domain.Asset, error) {
	return s.assets.GetByID(ctx, id)
}

func (s *Service) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	return s.assets.List(ctx)
}

// ListTrash surfaces soft-deleted records of both kinds, newest deletion
// first, labeled from their domain fields.
func (s *Service) ListTrash(ctx context.Context) ([]TrashItem, error) {
	items := []TrashItem{}

	signals, err := s.signals.ListDeleted(ctx)
	if err != nil {
		return nil, err
	}
	for i := range signals {
		signal := &signals[i]
		items = append(items, TrashItem{
			EntityType: signal.Kind(),
			ID:         signal.ID,
			Name:       signal.TrashLabel(),
			DeletedAt:  signal.DeletedAt,
			DeletedBy:  signal.DeletedBy,
		})
	}

	assets, err := s.assets.ListDeleted(ctx)
	if err != nil {
		return nil, err
	}
	for i := range assets {
		asset := &assets[i]
		items = append(items, TrashItem{
			EntityType: asset.Kind(),
			ID:         asset.ID,
			Name:       asset.TrashLabel(),
			DeletedAt:  asset.DeletedAt,
			DeletedBy:  asset.DeletedBy,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		left, right := items[i].DeletedAt, items[j].DeletedAt
		switch {
		case left == nil:
			return false
		case right == nil:
			return true
		default:
			return left.After(*right)
		}
	})
	return items, nil
}

// ListVersions returns all versions for one record, most recent first.
// History remains queryable after the record is soft-deleted.
func (s *Service) ListVersions(ctx context.Context, kind string, id int64) ([]domain.VersionEntry, error) {
	if kind != domain.KindSignal && kind != domain.KindAsset {
		return nil, domain.NewValidationError("unknown entity type %q", kind)
	}
	return s.versions.ListByRecord(ctx, kind, id)
}

// RecentChanges returns the global audit feed with derived change details.
func (s *Service) RecentChanges(ctx context.Context, limit int) ([]ChangeFeedItem, error) {
	entries, err := s.versions.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]ChangeFeedItem, len(entries))
	for i, entry := range entries {
		items[i] = ChangeFeedItem{VersionEntry: entry, Details: entry.ChangeSummary()}
	}
	return items, nil
}

// loadForMutation loads a live record through the unit of work's transaction
// and performs the early, advisory lock check before any field is touched.
// The store's conditional write re-validates the counter at commit.
func (s *Service) loadForMutation(ctx context.Context, uow *versioning.UnitOfWork, kind string, id int64, expectedVersion int64) (domain.TrackedRecord, error) {
	store, ok := uow.Stores().Records(kind)
	if !ok {
		return nil, fmt.Errorf("no record store registered for kind %q", kind)
	}
	rec, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion != rec.CurrentLockVersion() {
		return nil, &domain.VersionConflictError{
			Kind:     kind,
			RecordID: id,
			Expected: expectedVersion,
			Actual:   rec.CurrentLockVersion(),
		}
	}
	return rec, nil
}

// checkSignalRefs rejects associations to unknown or soft-deleted signals.
func (s *Service) checkSignalRefs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	live, err := s.signals.FilterLiveIDs(ctx, ids)
	if err != nil {
		return err
	}
	liveSet := make(map[int64]struct{}, len(live))
	for _, id := range live {
		liveSet[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := liveSet[id]; !ok {
			return domain.NewValidationError("signal #%d does not exist", id)
		}
	}
	return nil
}
