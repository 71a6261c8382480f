package engine

import (
	"errors"
	"fmt"
)

// ErrInternal marks an arithmetic invariant violation on input that already
// passed validation. It is a bug surface, not a control-flow path; the
// transport maps it to HTTP 500.
var ErrInternal = errors.New("engine: internal invariant violation")

// ValidationError rejects malformed input before any arithmetic. It carries
// the offending field and a human-readable reason; the transport maps it to
// HTTP 400 with status "validation_failed".
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
