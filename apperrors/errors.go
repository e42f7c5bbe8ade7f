package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors used across the services. Controllers map these to
// HTTP status codes; the sync loop never surfaces them to users.
var (
	// ErrPermissionDenied: the caller's role lacks the capability. Never retried.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound: a share code or entity identifier does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateRequest: an outstanding friend request already exists
	// for the ordered (from, to) pair.
	ErrDuplicateRequest = errors.New("duplicate friend request")

	// ErrSyncFailure: transient remote I/O failure. The local write already
	// succeeded; the dirty flag stays set for retry.
	ErrSyncFailure = errors.New("sync failure")
)

// InvariantViolation rejects a mutation that would corrupt entity state
// (removing a pilot without transfer, double-pending membership, ...).
// The mutation aborts before any field is written.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Reason
}

// Invariant builds an InvariantViolation with a formatted reason
func Invariant(format string, args ...interface{}) error {
	return &InvariantViolation{Reason: fmt.Sprintf(format, args...)}
}

// IsInvariant reports whether err is (or wraps) an InvariantViolation
func IsInvariant(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}
