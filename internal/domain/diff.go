package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// FieldChange records one field's transition between two snapshots.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Diff is a minimal field-level delta between two snapshots. An empty diff
// means the mutation was a no-op and must not produce a version entry.
type Diff map[string]FieldChange

// DiffSnapshots compares the previous and current snapshot over the union of
// their field keys. This is the authoritative diff strategy: it is the only
// one that sees relationship membership changes, since those are not plain
// scalar columns.
func DiffSnapshots(prev, curr Snapshot) Diff {
	diff := Diff{}
	keys := make(map[string]struct{}, len(prev)+len(curr))
	for key := range prev {
		keys[key] = struct{}{}
	}
	for key := range curr {
		keys[key] = struct{}{}
	}
	for key := range keys {
		oldValue, hasOld := prev[key]
		newValue, hasNew := curr[key]
		if hasOld && hasNew && jsonEqual(oldValue, newValue) {
			continue
		}
		if !hasOld {
			oldValue = nil
		}
		if !hasNew {
			newValue = nil
		}
		diff[key] = FieldChange{Old: oldValue, New: newValue}
	}
	return diff
}

// jsonEqual compares two values by their JSON encoding, so float64 from a
// decoded JSONB snapshot and the same number built in memory compare equal.
func jsonEqual(a, b any) bool {
	encodedA, errA := json.Marshal(a)
	encodedB, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(encodedA, encodedB)
}

// Canonicalize returns a copy of the diff with every value normalized to the
// JSON-native form snapshot values carry. Field-history diffs are built from
// live Go values, so without this they would store a different encoding than
// snapshot-derived diffs.
func (d Diff) Canonicalize() Diff {
	out := make(Diff, len(d))
	for key, change := range d {
		out[key] = FieldChange{Old: canonicalValue(change.Old), New: canonicalValue(change.New)}
	}
	return out
}

// DecodeDiff unmarshals a diff stored as JSONB.
func DecodeDiff(raw []byte) (Diff, error) {
	if len(raw) == 0 {
		return Diff{}, nil
	}
	var diff Diff
	if err := json.Unmarshal(raw, &diff); err != nil {
		return nil, err
	}
	return diff, nil
}

// FormatFieldValue renders a snapshot or diff value for human-readable change
// descriptions.
func FormatFieldValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "(none)"
	case string:
		return typed
	case bool:
		if typed {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%g", typed)
	case map[string]any, []any:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", typed)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
