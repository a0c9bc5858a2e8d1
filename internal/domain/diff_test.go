package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestDiffSnapshotsScalarChange(t *testing.T) {
	prev := Snapshot{"id": float64(1), "power": 10.0, "modulation": "AM"}
	curr := Snapshot{"id": float64(1), "power": 25.0, "modulation": "AM"}

	diff := DiffSnapshots(prev, curr)
	if len(diff) != 1 {
		t.Fatalf("expected 1 changed field, got %d: %v", len(diff), diff)
	}
	change, ok := diff["power"]
	if !ok {
		t.Fatalf("expected power in diff, got %v", diff)
	}
	if change.Old != 10.0 || change.New != 25.0 {
		t.Errorf("unexpected transition: %v -> %v", change.Old, change.New)
	}
}

func TestDiffSnapshotsIdenticalIsEmpty(t *testing.T) {
	prev := Snapshot{"id": float64(1), "name": "site", "signal_ids": []any{float64(1), float64(2)}}
	curr := Snapshot{"id": float64(1), "name": "site", "signal_ids": []any{float64(1), float64(2)}}

	if diff := DiffSnapshots(prev, curr); len(diff) != 0 {
		t.Fatalf("expected empty diff, got %v", diff)
	}
}

func TestDiffSnapshotsSeesRelationshipChange(t *testing.T) {
	prev := (&Asset{ID: 4, Name: "site", SignalIDs: []int64{1, 2}}).Snapshot()
	curr := (&Asset{ID: 4, Name: "site", SignalIDs: []int64{1, 3}}).Snapshot()

	diff := DiffSnapshots(prev, curr)
	if len(diff) != 1 {
		t.Fatalf("expected only signal_ids to change, got %v", diff)
	}
	if _, ok := diff["signal_ids"]; !ok {
		t.Fatalf("expected signal_ids in diff, got %v", diff)
	}
}

func TestDiffSnapshotsKeyUnion(t *testing.T) {
	prev := Snapshot{"a": "x"}
	curr := Snapshot{"b": "y"}

	diff := DiffSnapshots(prev, curr)
	if len(diff) != 2 {
		t.Fatalf("expected both keys in diff, got %v", diff)
	}
	if diff["a"].Old != "x" || diff["a"].New != nil {
		t.Errorf("removed key: unexpected transition %v -> %v", diff["a"].Old, diff["a"].New)
	}
	if diff["b"].Old != nil || diff["b"].New != "y" {
		t.Errorf("added key: unexpected transition %v -> %v", diff["b"].Old, diff["b"].New)
	}
}

func TestFormatFieldValue(t *testing.T) {
	cases := []struct {
		value any
		want  string
	}{
		{nil, "(none)"},
		{"FM", "FM"},
		{true, "true"},
		{float64(100), "100"},
		{float64(100.5), "100.5"},
		{[]any{float64(1), float64(2)}, "[1,2]"},
	}
	for _, tc := range cases {
		if got := FormatFieldValue(tc.value); got != tc.want {
			t.Errorf("FormatFieldValue(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestChangeSummary(t *testing.T) {
	update := VersionEntry{
		Operation: OperationUpdate,
		Diff: Diff{
			"power":      {Old: float64(10), New: float64(25)},
			"modulation": {Old: "AM", New: "FM"},
		},
	}
	lines := update.ChangeSummary()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", lines)
	}
	// Keys are sorted, so modulation comes first.
	if lines[0] != "modulation: AM -> FM" {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if lines[1] != "power: 10 -> 25" {
		t.Errorf("unexpected second line %q", lines[1])
	}

	create := VersionEntry{
		Operation: OperationCreate,
		Snapshot:  Snapshot{"name": "site"},
	}
	lines = create.ChangeSummary()
	if len(lines) != 1 || lines[0] != "name: (none) -> site" {
		t.Errorf("unexpected create summary %v", lines)
	}

	deleteEntry := VersionEntry{Operation: OperationDelete, Snapshot: Snapshot{"name": "site"}}
	if lines := deleteEntry.ChangeSummary(); lines != nil {
		t.Errorf("delete should have no per-field detail, got %v", lines)
	}
}

func TestVerifyHash(t *testing.T) {
	snapshot := Snapshot{"id": float64(1), "name": "site"}
	entry := VersionEntry{Snapshot: snapshot, Hash: snapshot.Hash()}
	if !entry.VerifyHash() {
		t.Fatal("expected hash to verify")
	}

	entry.Snapshot["name"] = "tampered"
	if entry.VerifyHash() {
		t.Fatal("expected tampered snapshot to fail verification")
	}
}

func TestDiffCanonicalize(t *testing.T) {
	when := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	diff := Diff{
		"power":      {Old: int64(10), New: 25},
		"signal_ids": {Old: []int64{3, 1}, New: []int64{1, 2, 3}},
		"seen_at":    {Old: nil, New: when},
		"name":       {Old: "mast", New: "mast-2"},
	}

	got := diff.Canonicalize()

	if change := got["power"]; change.Old != float64(10) || change.New != float64(25) {
		t.Errorf("integers not normalized: %T -> %T", change.Old, change.New)
	}
	if change := got["signal_ids"]; !reflect.DeepEqual(change.New, []any{float64(1), float64(2), float64(3)}) {
		t.Errorf("id list not normalized: %#v", change.New)
	}
	if change := got["seen_at"]; change.Old != nil || change.New != when.Format(time.RFC3339Nano) {
		t.Errorf("time not normalized: %v -> %v", change.Old, change.New)
	}
	if change := got["name"]; change.Old != "mast" || change.New != "mast-2" {
		t.Errorf("string values must pass through unchanged: %v -> %v", change.Old, change.New)
	}
	// The original diff keeps its live values.
	if _, ok := diff["power"].Old.(int64); !ok {
		t.Error("Canonicalize must copy, not mutate")
	}
}
