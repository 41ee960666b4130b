package driven

import (
	"context"

	"github.com/opentier/supportbot/internal/core/domain"
)

// VectorIndex stores chunk embeddings and provides similarity search.
//
// Implementations must be safe for concurrent use. Similarity scores
// are normalised to [0, 1], returned in descending order; ties are
// broken by insertion recency, most recent first.
type VectorIndex interface {
	// Init prepares the index for vectors of the given dimensionality.
	// Upserting a vector of a different dimensionality is an error.
	Init(ctx context.Context, dimensions int) error

	// Upsert inserts or replaces chunks keyed by chunk ID. Re-upserting
	// an existing chunk ID overwrites its content and embedding.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Search finds at most limit chunks nearest to the query vector,
	// restricted by filters. An empty index returns an empty slice, not
	// an error.
	Search(ctx context.Context, query []float32, limit int, filters SearchFilters) ([]domain.RetrievalResult, error)

	// DeleteByDocID removes all chunks belonging to a document. Deleting
	// a document with no chunks is a no-op.
	DeleteByDocID(ctx context.Context, docID string) error

	// ListDocuments returns a summary of every document in the index.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)

	// CountChunks reports the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// Ping validates the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// SearchFilters restricts similarity search to matching chunks. Zero
// values mean no restriction; set fields combine with AND.
type SearchFilters struct {
	// ProductVersion matches the document's product version exactly.
	ProductVersion string

	// SourceType matches the document's source type.
	SourceType domain.SourceType

	// DocumentIDs restricts results to the listed documents.
	DocumentIDs []string
}
