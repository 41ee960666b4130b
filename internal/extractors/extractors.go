// Package extractors pulls raw documents out of source systems and
// file formats. Each extractor handles one source type; the registry
// routes ingest requests to the right one.
//
// Extractors only produce text with metadata. Chunking and embedding
// happen downstream in the ingest service.
package extractors

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
)

// maxComments caps how many ticket comments feed a document. The first
// comments hold the problem statement and the fix.
const maxComments = 5

// Registry routes source types to extractors.
type Registry struct {
	extractors map[domain.SourceType]driven.Extractor
}

// NewRegistry creates a registry over the given extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{extractors: make(map[domain.SourceType]driven.Extractor, len(extractors))}
	for _, e := range extractors {
		r.extractors[e.SourceType()] = e
	}
	return r
}

// Get returns the extractor for a source type.
func (r *Registry) Get(sourceType domain.SourceType) (driven.Extractor, error) {
	e, ok := r.extractors[sourceType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, sourceType)
	}
	return e, nil
}

// SourceTypes lists the registered source types.
func (r *Registry) SourceTypes() []domain.SourceType {
	types := make([]domain.SourceType, 0, len(r.extractors))
	for t := range r.extractors {
		types = append(types, t)
	}
	return types
}

// docID builds the stable document ID "<source>:<externalID>". Stable
// IDs make re-ingestion idempotent: the ingest service deletes by this
// ID before upserting.
func docID(sourceType domain.SourceType, externalID string) string {
	return fmt.Sprintf("%s:%s", sourceType, externalID)
}

// pathDigest derives a stable external ID from a file path.
func pathDigest(path string) string {
	sum := sha1.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}

// stringParam reads an optional string parameter.
func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// requireStringParam reads a required string parameter.
func requireStringParam(params map[string]any, key string) (string, error) {
	v := stringParam(params, key)
	if v == "" {
		return "", &domain.ValidationError{Field: key, Reason: "required parameter missing"}
	}
	return v, nil
}
