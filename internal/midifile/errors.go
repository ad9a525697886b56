package midifile

import (
	"errors"
	"fmt"
)

// TimingError reports an input time base that cannot be normalized to a
// single integer tick scale. It is surfaced immediately; the decoder
// never emits partial output.
type TimingError struct {
	// Code identifies the error category.
	Code string

	// Format is the offending SMF time format.
	Format string
}

// ErrCodeUnsupportedTiming is the code carried by every TimingError.
const ErrCodeUnsupportedTiming = "UNSUPPORTED_TIMING"

// NewTimingError creates a TimingError for the given time format.
func NewTimingError(format string) *TimingError {
	return &TimingError{Code: ErrCodeUnsupportedTiming, Format: format}
}

// Error implements the error interface.
func (e *TimingError) Error() string {
	return fmt.Sprintf("%s: cannot normalize time format %q to integer ticks", e.Code, e.Format)
}

// IsTimingError returns true if err is an unsupported-timing error.
// Uses errors.As to handle wrapped errors.
func IsTimingError(err error) bool {
	var te *TimingError
	return errors.As(err, &te)
}
