package graph

import (
	"errors"
	"fmt"
)

// BuildError represents a fatal error detected during graph construction.
//
// Graph construction either fully succeeds or produces nothing; none of
// these errors are retryable, since the pipeline is deterministic and
// idempotent.
type BuildError struct {
	// Code identifies the error category.
	Code BuildErrorCode

	// Message is a human-readable description.
	Message string

	// Count is the offending count (nodes, channels) when relevant.
	Count int

	// Limit is the bound that was exceeded when relevant.
	Limit int
}

// BuildErrorCode categorizes construction errors.
type BuildErrorCode string

const (
	// ErrCodeCapacityExceeded indicates a node or channel index would
	// exceed its fixed bound.
	ErrCodeCapacityExceeded BuildErrorCode = "CAPACITY_EXCEEDED"

	// ErrCodeIntegerNarrowing indicates a node or channel count would not
	// fit the 16-bit index space.
	ErrCodeIntegerNarrowing BuildErrorCode = "INTEGER_NARROWING"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Limit != 0 {
		return fmt.Sprintf("%s: %s (count=%d, limit=%d)", e.Code, e.Message, e.Count, e.Limit)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCapacityError returns true if err is a capacity-exceeded build error.
// Uses errors.As to handle wrapped errors.
func IsCapacityError(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == ErrCodeCapacityExceeded
	}
	return false
}

// IsNarrowingError returns true if err is an integer-narrowing build
// error. Uses errors.As to handle wrapped errors.
func IsNarrowingError(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == ErrCodeIntegerNarrowing
	}
	return false
}

// NewNarrowingError creates a BuildError for a count that does not fit
// the 16-bit index space.
func NewNarrowingError(what string, count int) *BuildError {
	return &BuildError{
		Code:    ErrCodeIntegerNarrowing,
		Message: fmt.Sprintf("%s count does not fit 16-bit index space", what),
		Count:   count,
		Limit:   maxNodes,
	}
}
