package domain

import (
	"errors"
	"fmt"
)

// Failure classes. Every error leaving the pipeline wraps exactly one of these.
var (
	ErrDataLoad   = errors.New("data load failed")
	ErrGeneration = errors.New("generation failed")
	ErrWrite      = errors.New("artifact write failed")
)

// Field-level sentinels wrapped by LoadError and GenerationError.
var (
	ErrMissingField    = errors.New("missing required field")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrDuplicateSlug   = errors.New("duplicate slug")
	ErrInvalidSeverity = errors.New("invalid severity")
	ErrInvalidRating   = errors.New("rating out of range")
	ErrInvalidSlug     = errors.New("invalid slug")
	ErrEmptyList       = errors.New("list field is empty")
)

// FieldError names the record field a validation sentinel applies to.
type FieldError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Wrapped, e.Field)
	}
	return fmt.Sprintf("%s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return e.Wrapped }

// NewFieldError creates a FieldError.
func NewFieldError(field, value string, wrapped error) *FieldError {
	return &FieldError{Field: field, Value: value, Wrapped: wrapped}
}

// LoadError reports a source table that could not be loaded. It matches
// ErrDataLoad as well as the wrapped cause.
type LoadError struct {
	Table   string
	Record  string // record id or index, empty for table-level failures
	Wrapped error
}

func (e *LoadError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("load %s: %v", e.Table, e.Wrapped)
	}
	return fmt.Sprintf("load %s[%s]: %v", e.Table, e.Record, e.Wrapped)
}

func (e *LoadError) Unwrap() []error { return []error{ErrDataLoad, e.Wrapped} }

// GenerationError reports a record that could not fill its template.
type GenerationError struct {
	Generator string
	Slug      string
	Wrapped   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s (%s): %v", e.Generator, e.Slug, e.Wrapped)
}

func (e *GenerationError) Unwrap() []error { return []error{ErrGeneration, e.Wrapped} }

// WriteError reports an artifact that could not be persisted.
type WriteError struct {
	Artifact string
	Path     string
	Wrapped  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s (%s): %v", e.Artifact, e.Path, e.Wrapped)
}

func (e *WriteError) Unwrap() []error { return []error{ErrWrite, e.Wrapped} }
