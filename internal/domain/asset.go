package domain

import (
	"sort"
	"strings"
	"time"
)

// Asset is a tracked record grouping a named installation with the set of
// signals it emits or receives. The signal association is many-to-many and
// order-irrelevant.
type Asset struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	SignalIDs   []int64    `json:"signal_ids"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   string     `json:"created_by"`
	UpdatedAt   time.Time  `json:"updated_at"`
	UpdatedBy   string     `json:"updated_by"`
	LockVersion int64      `json:"lock_version"`
	IsDeleted   bool       `json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedBy   *string    `json:"deleted_by,omitempty"`
}

func (a *Asset) Kind() string { return KindAsset }
func (a *Asset) RecordID() int64 { return a.ID }
func (a *Asset) CurrentLockVersion() int64 { return a.LockVersion }
func (a *Asset) IsSoftDeleted() bool { return a.IsDeleted }

func (a *Asset) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return NewValidationError("name is required")
	}
	return nil
}

// SetSignalIDs replaces the association set, deduplicating and sorting so the
// stored order never depends on caller or fetch order.
func (a *Asset) SetSignalIDs(ids []int64) {
	a.SignalIDs = normalizeSignalIDs(ids)
}

func (a *Asset) Snapshot() Snapshot {
	ids := normalizeSignalIDs(a.SignalIDs)
	encoded := make([]any, len(ids))
	for i, id := range ids {
		encoded[i] = canonicalValue(id)
	}
	return Snapshot{
		"id":          canonicalValue(a.ID),
		"name":        a.Name,
		"description": a.Description,
		"is_deleted":  a.IsDeleted,
		"signal_ids":  encoded,
	}
}

func (a *Asset) TrashLabel() string { return a.Name }

func (a *Asset) StampCreated(at time.Time, by string) {
	a.CreatedAt = at
	a.CreatedBy = by
	a.UpdatedAt = at
	a.UpdatedBy = by
	if a.LockVersion == 0 {
		a.LockVersion = 1
	}
}

func (a *Asset) StampUpdated(at time.Time, by string) {
	a.UpdatedAt = at
	a.UpdatedBy = by
}

func (a *Asset) StampDeleted(at time.Time, by string) {
	a.IsDeleted = true
	deletedAt := at
	deletedBy := by
	a.DeletedAt = &deletedAt
	a.DeletedBy = &deletedBy
	a.UpdatedAt = at
	a.UpdatedBy = by
}

func normalizeSignalIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return []int64{}
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
