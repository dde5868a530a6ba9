package sync

import "fmt"

// ValidationError marks a malformed record: a missing external id, an
// unparseable date. The batch runner isolates it and moves on.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

// ProcessingError wraps an unexpected failure during classification or
// persistence, distinct from a validation failure of the record itself.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string { return e.Err.Error() }
func (e *ProcessingError) Unwrap() error { return e.Err }

// Processingf builds a ProcessingError from a format string.
func Processingf(format string, args ...any) *ProcessingError {
	return &ProcessingError{Err: fmt.Errorf(format, args...)}
}
