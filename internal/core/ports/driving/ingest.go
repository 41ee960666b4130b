package driving

import (
	"context"

	"github.com/opentier/supportbot/internal/core/domain"
)

// IngestService pulls documents from sources into the vector index.
type IngestService interface {
	// Ingest extracts, chunks, embeds, and indexes documents from the
	// requested sources. A failed source is reported in the returned
	// report and does not abort the remaining sources.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestReport, error)

	// IngestFile ingests a single local file, inferring the source type
	// from its extension.
	IngestFile(ctx context.Context, path string) (*domain.IngestReport, error)
}

// DocumentService exposes the indexed document inventory.
type DocumentService interface {
	// ListDocuments returns a summary of every indexed document.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)

	// DeleteDocument removes a document and its chunks from the index.
	DeleteDocument(ctx context.Context, docID string) error
}

// HealthService reports readiness of the pipeline's dependencies.
type HealthService interface {
	// Health pings each configured dependency and reports per-component
	// status.
	Health(ctx context.Context) domain.HealthReport
}
