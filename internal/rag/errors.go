package rag

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline. Input problems fail fast and are never
// retried; provider and store failures propagate to the caller, which maps
// them to transport-level responses.
var (
	// ErrEmptyQuery is returned when the query is empty or whitespace-only.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrEmbedding wraps failures from the embedding provider.
	ErrEmbedding = errors.New("embedding provider error")

	// ErrSearch wraps failures from the knowledge store.
	ErrSearch = errors.New("knowledge store error")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
