package domain

import (
	"errors"
	"testing"
	"time"
)

func TestSignalValidateRange(t *testing.T) {
	valid := &Signal{FrequencyFrom: 88, FrequencyTo: 108}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	equal := &Signal{FrequencyFrom: 100, FrequencyTo: 100}
	if err := equal.Validate(); err != nil {
		t.Fatalf("equal bounds must be valid: %v", err)
	}

	inverted := &Signal{FrequencyFrom: 108, FrequencyTo: 88}
	err := inverted.Validate()
	if err == nil {
		t.Fatal("expected validation error for inverted range")
	}
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestAssetValidateName(t *testing.T) {
	if err := (&Asset{Name: "   "}).Validate(); err == nil {
		t.Fatal("expected validation error for blank name")
	}
	if err := (&Asset{Name: "relay"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStampCreatedInitializesLockVersion(t *testing.T) {
	now := time.Now().UTC()
	signal := &Signal{}
	signal.StampCreated(now, "alice")

	if signal.LockVersion != 1 {
		t.Errorf("expected lock_version 1, got %d", signal.LockVersion)
	}
	if signal.CreatedBy != "alice" || signal.UpdatedBy != "alice" {
		t.Errorf("audit attribution not stamped: %q / %q", signal.CreatedBy, signal.UpdatedBy)
	}
	if !signal.CreatedAt.Equal(now) || !signal.UpdatedAt.Equal(now) {
		t.Error("audit timestamps not stamped")
	}
}

func TestStampDeletedSetsTombstone(t *testing.T) {
	now := time.Now().UTC()
	asset := &Asset{Name: "site"}
	asset.StampDeleted(now, "bob")

	if !asset.IsDeleted {
		t.Fatal("expected tombstone flag")
	}
	if asset.DeletedAt == nil || !asset.DeletedAt.Equal(now) {
		t.Error("deleted_at not stamped")
	}
	if asset.DeletedBy == nil || *asset.DeletedBy != "bob" {
		t.Error("deleted_by not stamped")
	}
}

func TestTrashLabels(t *testing.T) {
	signal := &Signal{FrequencyFrom: 88.5, FrequencyTo: 108, Modulation: "FM"}
	if got := signal.TrashLabel(); got != "88.5-108 FM" {
		t.Errorf("unexpected signal label %q", got)
	}
	asset := &Asset{Name: "north relay"}
	if got := asset.TrashLabel(); got != "north relay" {
		t.Errorf("unexpected asset label %q", got)
	}
}

func TestVersionConflictErrorMessages(t *testing.T) {
	loadTime := &VersionConflictError{Kind: KindSignal, RecordID: 3, Expected: 2, Actual: 5}
	if loadTime.Error() != "signals #3 was changed by another user: expected lock_version 2, found 5" {
		t.Errorf("unexpected message %q", loadTime.Error())
	}

	commitTime := &VersionConflictError{Kind: KindAsset, RecordID: 9, Expected: 4}
	if commitTime.Error() != "assets #9 was changed by another user: lock_version 4 is no longer current" {
		t.Errorf("unexpected message %q", commitTime.Error())
	}

	wrapped := errors.Join(errors.New("outer"), loadTime)
	if !IsVersionConflict(wrapped) {
		t.Error("IsVersionConflict should see through wrapping")
	}
	if IsVersionConflict(ErrNotFound) {
		t.Error("ErrNotFound is not a version conflict")
	}
}
