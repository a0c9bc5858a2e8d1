package domain

import (
	"fmt"
	"time"
)

// Signal is a tracked record describing an emission: a frequency range plus
// modulation and power.
type Signal struct {
	ID            int64      `json:"id"`
	FrequencyFrom float64    `json:"frequency_from"`
	FrequencyTo   float64    `json:"frequency_to"`
	Modulation    string     `json:"modulation"`
	Power         float64    `json:"power"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     string     `json:"created_by"`
	UpdatedAt     time.Time  `json:"updated_at"`
	UpdatedBy     string     `json:"updated_by"`
	LockVersion   int64      `json:"lock_version"`
	IsDeleted     bool       `json:"is_deleted"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	DeletedBy     *string    `json:"deleted_by,omitempty"`
}

func (s *Signal) Kind() string { return KindSignal }
func (s *Signal) RecordID() int64 { return s.ID }
func (s *Signal) CurrentLockVersion() int64 { return s.LockVersion }
func (s *Signal) IsSoftDeleted() bool { return s.IsDeleted }

// Validate checks the range invariant. The database enforces the same rule
// with a CHECK constraint.
func (s *Signal) Validate() error {
	if s.FrequencyTo < s.FrequencyFrom {
		return NewValidationError("frequency_to must be greater than or equal to frequency_from")
	}
	return nil
}

func (s *Signal) Snapshot() Snapshot {
	return Snapshot{
		"id":             canonicalValue(s.ID),
		"frequency_from": s.FrequencyFrom,
		"frequency_to":   s.FrequencyTo,
		"modulation":     s.Modulation,
		"power":          s.Power,
		"is_deleted":     s.IsDeleted,
	}
}

func (s *Signal) TrashLabel() string {
	return fmt.Sprintf("%g-%g %s", s.FrequencyFrom, s.FrequencyTo, s.Modulation)
}

func (s *Signal) StampCreated(at time.Time, by string) {
	s.CreatedAt = at
	s.CreatedBy = by
	s.UpdatedAt = at
	s.UpdatedBy = by
	if s.LockVersion == 0 {
		s.LockVersion = 1
	}
}

func (s *Signal) StampUpdated(at time.Time, by string) {
	s.UpdatedAt = at
	s.UpdatedBy = by
}

func (s *Signal) StampDeleted(at time.Time, by string) {
	s.IsDeleted = true
	deletedAt := at
	deletedBy := by
	s.DeletedAt = &deletedAt
	s.DeletedBy = &deletedBy
	s.UpdatedAt = at
	s.UpdatedBy = by
}
