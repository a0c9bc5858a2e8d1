package domain

import (
	"fmt"
	"time"
)

// VersionEntry is one immutable row of the version ledger. Entries are
// created once at commit time and never mutated or deleted; they outlive the
// record they describe.
type VersionEntry struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Version    int64     `json:"version"`
	Operation  Operation `json:"operation"`
	Snapshot   Snapshot  `json:"snapshot"`
	Diff       Diff      `json:"diff"`
	Hash       string    `json:"hash"`
	ChangedAt  time.Time `json:"changed_at"`
	ChangedBy  string    `json:"changed_by"`
}

// ChangeSummary derives one human-readable line per changed field. Updates
// read from the diff, creates from the full snapshot with a synthetic old
// value of none, deletes produce no per-field detail.
func (e VersionEntry) ChangeSummary() []string {
	switch e.Operation {
	case OperationCreate:
		lines := make([]string, 0, len(e.Snapshot))
		for _, key := range sortedKeys(e.Snapshot) {
			lines = append(lines, fmt.Sprintf("%s: %s -> %s", key, FormatFieldValue(nil), FormatFieldValue(e.Snapshot[key])))
		}
		return lines
	case OperationUpdate:
		lines := make([]string, 0, len(e.Diff))
		for _, key := range sortedKeys(e.Diff) {
			change := e.Diff[key]
			lines = append(lines, fmt.Sprintf("%s: %s -> %s", key, FormatFieldValue(change.Old), FormatFieldValue(change.New)))
		}
		return lines
	default:
		return nil
	}
}

// VerifyHash recomputes the snapshot digest and reports whether it still
// matches the stored fingerprint.
func (e VersionEntry) VerifyHash() bool {
	return e.Snapshot.Hash() == e.Hash
}
