package apperrors

import (
	"errors"
	"sort"
	"strings"
)

// Common errors
var (
	// ErrNotFound reports an expected absence. It maps to 404 and is not an incident.
	ErrNotFound = errors.New("resource not found")
	// ErrValidation reports client-correctable input. It maps to 400.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence reports an unexpected storage fault.
	ErrPersistence = errors.New("persistence failure")
	// ErrRendering reports a document generation fault.
	ErrRendering = errors.New("rendering failure")
	// ErrConflict reports a concurrency conflict the database refused to resolve.
	ErrConflict = errors.New("conflict")
)

// ValidationError carries field-level messages keyed by the JSON field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError from a field->message map.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Error implements error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap implements errors.Unwrap interface
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Is returns whether err matches target or any of the errors in errList.
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
