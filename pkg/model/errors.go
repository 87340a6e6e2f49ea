// pkg/model/errors.go
package model

import (
	"errors"
	"fmt"
)

// SchemaConfigurationError indicates a batch cannot be cleaned at all:
// a required column is absent from the input, or a cross-field rule
// references an undeclared field. Fatal for the whole batch, never a
// per-row outcome.
type SchemaConfigurationError struct {
	Kind   string // record kind the schema describes
	Detail string
}

// Error implements the error interface.
func (e *SchemaConfigurationError) Error() string {
	return fmt.Sprintf("schema configuration error for %s: %s", e.Kind, e.Detail)
}

// NewSchemaConfigurationError creates a fatal configuration error.
func NewSchemaConfigurationError(kind, format string, args ...interface{}) *SchemaConfigurationError {
	return &SchemaConfigurationError{
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	}
}

// IsSchemaConfiguration reports whether err is a SchemaConfigurationError.
func IsSchemaConfiguration(err error) bool {
	var sce *SchemaConfigurationError
	return errors.As(err, &sce)
}

// SinkWriteError wraps a failure to persist the invalid-row log. It is
// recorded and swallowed by the cleaner; it never alters a BatchResult.
type SinkWriteError struct {
	Sink string
	Err  error
}

// Error implements the error interface.
func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("failed to write invalid-data log to %s: %v", e.Sink, e.Err)
}

// Unwrap returns the underlying sink failure.
func (e *SinkWriteError) Unwrap() error {
	return e.Err
}
