package model

import "errors"

// Hard failures surfaced by the storage layer and the session tracker.
// Soft per-punch outcomes (duplicate, too soon, no matching slot, sequence
// violations) are recorded as punch state + message, not as Go errors.
var (
	// ErrDuplicatePunch is returned when the (device, badge, timestamp)
	// unique constraint rejects an insert.
	ErrDuplicatePunch = errors.New("duplicate punch")

	// ErrSessionConflict is returned when a session open is attempted while
	// the employee already has an open session.
	ErrSessionConflict = errors.New("employee already has an open session")

	// ErrSessionClosed is returned when a close is attempted on a session
	// that already has a check-out.
	ErrSessionClosed = errors.New("session is already closed")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
)
