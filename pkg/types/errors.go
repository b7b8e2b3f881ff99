package types

import (
	"errors"
	"fmt"
)

// Store operation errors. Concrete error values from the storage layer wrap
// one of these sentinels so callers can classify failures with errors.Is.
var (
	// ErrNotFound indicates the operation targeted an id that does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict indicates a uniqueness violation, a rejected status
	// transition, or an exhausted sequence allocation.
	ErrConflict = errors.New("conflicting write")

	// ErrStorageUnavailable indicates the database could not be reached or
	// stayed locked past the busy timeout. The logical action was not
	// applied; the caller decides whether to retry it.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalid is the base error for input validation failures.
	ErrInvalid = errors.New("invalid input")
)

// ErrAllocationExhausted is returned when the sequence allocator loses the
// insert race on every bounded attempt. It is a ConflictError: the caller
// may retry the whole logical action.
var ErrAllocationExhausted = fmt.Errorf("sequence allocation exhausted: %w", ErrConflict)

// ValidationError reports a malformed or missing input field. It is raised
// before any write touches storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// TransitionError reports a status transition that the workflow tables do
// not permit. The targeted row is left untouched.
type TransitionError struct {
	Entity    string
	From      string
	Requested string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot transition from %s to %s", e.Entity, e.From, e.Requested)
}

func (e *TransitionError) Unwrap() error { return ErrConflict }
