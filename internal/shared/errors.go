package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the resource is absent or not owned by the caller.
	// Ownership mismatches are reported as ErrNotFound on purpose so the
	// existence of other users' resources is never confirmed.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the resource was already handled.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing or unresolvable bearer token.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports malformed input with the offending field names.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// AsValidationError unwraps err into a ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// WrapNotFound annotates ErrNotFound with the entity name.
func WrapNotFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}
