package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that a referenced record does not exist or has already
// been soft-deleted.
var ErrNotFound = errors.New("record not found")

// ValidationError rejects malformed or semantically invalid input before any
// mutation is attempted.
type ValidationError struct {
	Message string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Message }

// VersionConflictError rejects a mutation whose expected version no longer
// matches the record's lock counter. It is distinguishable from NotFound and
// validation failures so callers can offer a reload-and-retry path.
type VersionConflictError struct {
	Kind     string
	RecordID int64
	Expected int64
	// Actual is the lock version observed at load time; zero when the
	// conflict was only detected by the conditional write at commit.
	Actual int64
}

func (e *VersionConflictError) Error() string {
	if e.Actual > 0 {
		return fmt.Sprintf("%s #%d was changed by another user: expected lock_version %d, found %d", e.Kind, e.RecordID, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s #%d was changed by another user: lock_version %d is no longer current", e.Kind, e.RecordID, e.Expected)
}

// IsVersionConflict reports whether err is a version conflict anywhere in its
// chain.
func IsVersionConflict(err error) bool {
	var conflict *VersionConflictError
	return errors.As(err, &conflict)
}

// IsValidation reports whether err is a validation failure anywhere in its
// chain.
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}
