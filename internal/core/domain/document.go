package domain

import "time"

// SourceType identifies where a document came from.
type SourceType string

// Supported source types.
const (
	// SourceZendesk is a Zendesk support ticket.
	SourceZendesk SourceType = "zendesk"

	// SourceJira is a Jira issue.
	SourceJira SourceType = "jira"

	// SourcePDF is an uploaded PDF manual.
	SourcePDF SourceType = "pdf"

	// SourceDocx is an uploaded Word document.
	SourceDocx SourceType = "docx"

	// SourceText is a plain text file.
	SourceText SourceType = "txt"

	// SourceMarkdown is a markdown file.
	SourceMarkdown SourceType = "md"
)

// IsValid reports whether the source type is a known value.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceZendesk, SourceJira, SourcePDF, SourceDocx, SourceText, SourceMarkdown:
		return true
	}
	return false
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// Document represents a logical unit of knowledge in the corpus.
//
// The ID is stable across re-ingestion: re-ingesting the same external
// item must reuse the same ID so the index replaces rather than
// duplicates its chunks.
type Document struct {
	// ID is the unique identifier, scheme "source:external_id"
	// (e.g. "zendesk:1234", "pdf:9f8a...").
	ID string

	// Title is the human-readable title.
	Title string

	// SourceType identifies which extractor produced the document.
	SourceType SourceType

	// ProductVersion is an optional filter key.
	ProductVersion string

	// Tags are free-form labels carried from the source.
	Tags []string

	// Metadata contains source-native key-value pairs
	// (ticket_id, status, priority, file_path, ...).
	Metadata map[string]any

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-indexed.
	UpdatedAt time.Time
}

// Chunk is a contiguous slice of a document's text, sized to fit
// generation-context budgets. It is the unit of embedding and retrieval.
type Chunk struct {
	// ID is the unique chunk identifier, generated at chunk-creation time.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Content is the chunk text. Never empty after trimming.
	Content string

	// Index is the 0-based position within the document (reading order).
	Index int

	// Embedding is the vector representation. Optional at creation,
	// required before indexing; its length must equal the active
	// embedding provider's declared dimension.
	Embedding []float32

	// Document carries the owning document's metadata so search results
	// can be cited without a second lookup.
	Document Document
}

// RetrievalResult pairs a chunk with a similarity score in [0,1]
// where 1.0 is an exact match. Produced only by search, never persisted.
type RetrievalResult struct {
	Chunk Chunk

	// Similarity is the normalised similarity score.
	Similarity float64
}

// SourceCitation is the per-document aggregation of retrieval hits
// presented to the end user. At most one citation exists per
// (title, source type) pair per answer.
type SourceCitation struct {
	// DocTitle is the title of the cited document.
	DocTitle string `json:"doc_title"`

	// SourceType is the document's origin.
	SourceType SourceType `json:"source_type"`

	// TicketID is set for zendesk/jira sources.
	TicketID string `json:"ticket_id,omitempty"`

	// Confidence is the maximum similarity among the document's hits.
	// A document is cited at its best-matching passage's strength.
	Confidence float64 `json:"confidence"`

	// ChunkID is the first chunk encountered in result order for
	// this document.
	ChunkID string `json:"chunk_id"`
}

// DocumentSummary describes an indexed document with its chunk count,
// as returned by the document listing operation.
type DocumentSummary struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	SourceType     SourceType `json:"source_type"`
	ProductVersion string     `json:"product_version,omitempty"`
	ChunkCount     int        `json:"chunk_count"`
	CreatedAt      time.Time  `json:"created_at"`
}
