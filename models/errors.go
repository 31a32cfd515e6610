package models

import "errors"

// Error taxonomy for the reconciliation engine. Normalization, scoring and
// matching never return errors for dirty strings -- they degrade to low
// confidence instead. These sentinels cover the cases that must reach the
// caller.
var (
	// ErrNotFound means a referenced station or report does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means the caller supplied a malformed value, e.g. a
	// non-positive submitted price or an empty identifier.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCycleResetConflict means a cycle reset could not be applied as one
	// atomic unit and was rolled back.
	ErrCycleResetConflict = errors.New("reporting cycle reset conflict")

	// ErrUpstreamUnavailable means every data source needed for an operation
	// failed. A single failed source degrades to partial results instead.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
