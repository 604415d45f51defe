package harness

import (
	"errors"
	"fmt"
)

// SetupError is a failure before any test code ran (exit code 2).
// Examples include an unknown test name or an unusable log path.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *SetupError) Unwrap() error {
	return e.Err
}

// NewSetupError creates a new SetupError
func NewSetupError(err error) *SetupError {
	return &SetupError{Err: err}
}

// IsSetupError checks if the error is or wraps a SetupError
func IsSetupError(err error) bool {
	var setupErr *SetupError
	return err != nil && errors.As(err, &setupErr)
}

// ForcedTerminationError reports a test that ignored cancellation past the grace window (exit code 3).
type ForcedTerminationError struct {
	Test string
}

func (e *ForcedTerminationError) Error() string {
	return fmt.Sprintf("test %s did not stop after cancellation and was force terminated", e.Test)
}

// NewForcedTerminationError creates a new ForcedTerminationError
func NewForcedTerminationError(test string) *ForcedTerminationError {
	return &ForcedTerminationError{Test: test}
}

// IsForcedTerminationError checks if the error is or wraps a ForcedTerminationError
func IsForcedTerminationError(err error) bool {
	var forcedErr *ForcedTerminationError
	return err != nil && errors.As(err, &forcedErr)
}
