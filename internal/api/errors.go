package api

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable indicates the budget server is unreachable.
	ErrUnavailable = errors.New("budget server unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("api request timed out")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("api retry attempts exhausted")
)

// FieldError is one server-side validation failure on a single payload field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries the per-field messages of a rejected write. Index
// identifies the offending element of a bulk payload array, -1 for
// single-object requests.
type ValidationError struct {
	Status int
	Index  int
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return fmt.Sprintf("validation failed (status %d): %s", e.Status, strings.Join(parts, "; "))
}

func errorCode(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.As(err, &verr):
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}
