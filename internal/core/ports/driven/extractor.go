package driven

import (
	"context"

	"github.com/opentier/supportbot/internal/core/domain"
)

// Extractor pulls raw documents from one source system (a ticket API,
// a file format, a drop directory). Extractors do not chunk or embed;
// they only produce text with metadata.
type Extractor interface {
	// SourceType identifies the source this extractor handles.
	SourceType() domain.SourceType

	// Extract fetches documents according to source-specific params.
	// A failure extracting one document must not abort the rest; such
	// failures are reported in ExtractedBatch.Errors.
	Extract(ctx context.Context, params map[string]any) (*ExtractedBatch, error)
}

// ExtractedDocument is one document pulled from a source, before
// chunking.
type ExtractedDocument struct {
	// Document carries the stable ID, title, and metadata.
	Document domain.Document

	// Text is the full extracted text.
	Text string
}

// ExtractedBatch is the result of one Extract call.
type ExtractedBatch struct {
	// Documents are the successfully extracted documents.
	Documents []ExtractedDocument

	// Errors describes per-document failures that did not abort the batch.
	Errors []string
}
