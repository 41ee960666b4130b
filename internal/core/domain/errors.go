package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyContent indicates extraction produced no usable text.
	// An empty document is an ingestion error, not a silent no-op.
	ErrEmptyContent = errors.New("no text content extracted")

	// ErrUnsupportedSource indicates an unknown source type.
	ErrUnsupportedSource = errors.New("unsupported source type")
)

// ValidationError reports malformed input. It is raised before any
// external call and surfaced verbatim to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProviderError reports an embedding, vector-index, or generation
// backend failure. It is fatal for the request that hit it and is
// never converted into a fallback answer: a provider outage and a
// low-confidence result are distinct failure modes.
type ProviderError struct {
	// Provider names the failing backend ("ollama", "openai", "sqlite", ...).
	Provider string

	// Op is the operation that failed ("embed", "search", "generate", ...).
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ExtractionError reports a single source's extraction failure.
// It is recorded in the per-source error list and does not abort
// sibling sources in a multi-source ingestion batch.
type ExtractionError struct {
	// SourceType is the source whose extraction failed.
	SourceType SourceType

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.SourceType, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports an invalid provider configuration, such
// as a dimension mismatch between the embedding provider and the
// vector index, or missing credentials for a selected provider.
// It is fatal at startup and never deferred to request time.
type ConfigurationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsProvider reports whether err is (or wraps) a ProviderError.
func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsExtraction reports whether err is (or wraps) an ExtractionError.
func IsExtraction(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
