// Package errors provides custom error types for product-related operations.
package errors

import (
	"errors"
	"fmt"
)

var ErrProductNotFound = errors.New("product not found")

// ErrMissingField is returned when a required field is absent from the input.
var ErrMissingField = errors.New("missing field")

// ErrInvalidFormat is returned when a field is present but empty or of the wrong type.
var ErrInvalidFormat = errors.New("invalid format")

// FieldError tags a validation failure with the offending field.
// Err is either ErrMissingField or ErrInvalidFormat.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// MissingField returns a FieldError wrapping ErrMissingField.
func MissingField(field string) error {
	return &FieldError{Field: field, Err: ErrMissingField}
}

// InvalidFormat returns a FieldError wrapping ErrInvalidFormat.
func InvalidFormat(field string) error {
	return &FieldError{Field: field, Err: ErrInvalidFormat}
}
