package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals bad caller input. Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration signals missing credentials or settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrConsistency signals an internal invariant violation.
	ErrConsistency = errors.New("consistency error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorIndex signals a vector database failure.
	ErrVectorIndex = errors.New("vector index error")
	// ErrExtraction signals that document text could not be extracted.
	ErrExtraction = errors.New("text extraction failed")
	// ErrEmptyContent signals a document without indexable text.
	ErrEmptyContent = errors.New("no content available for indexing")
	// ErrGenerationUnconfigured signals that no generation credential is set.
	ErrGenerationUnconfigured = errors.New("text generation is not configured")
	// ErrGenerationFailed signals a text generation provider failure.
	ErrGenerationFailed = errors.New("text generation failed")

	// ErrSourceNotFound signals a cited source file missing from the document root.
	ErrSourceNotFound = fmt.Errorf("source document not found: %w", ErrValidation)
	// ErrChunkOutOfRange signals a stored chunk index outside the recomputed chunk sequence.
	ErrChunkOutOfRange = fmt.Errorf("chunk index out of range for source document: %w", ErrValidation)
)

// ValidationError describes a rejected caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a named input.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
