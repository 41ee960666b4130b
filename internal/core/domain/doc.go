// Package domain defines the core business entities for the support chatbot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A logical unit of knowledge with metadata
//   - Chunk: The unit of embedding and retrieval within a document
//   - RetrievalResult: A chunk paired with a similarity score
//   - SourceCitation: Per-document aggregation of retrieval hits
//   - ConversationTurn: An append-only chat log entry
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
