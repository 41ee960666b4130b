// Package memory provides an in-memory vector index using brute-force
// cosine similarity search. Suitable for tests and small corpora.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
)

// Index is an in-memory vector index. Safe for concurrent use.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	entries    map[string]*entry
	seq        uint64
}

type entry struct {
	chunk domain.Chunk
	// seq orders entries by insertion recency for tie-breaking.
	seq uint64
}

// New creates an empty in-memory vector index. Init must be called
// before upserting.
func New() *Index {
	return &Index{entries: make(map[string]*entry)}
}

var _ driven.VectorIndex = (*Index)(nil)

// Init prepares the index for vectors of the given dimensionality.
// Once vectors are stored the dimensionality is fixed, like the sqlite
// backend's persisted dimension check.
func (idx *Index) Init(_ context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.dimensions != 0 && idx.dimensions != dimensions {
		return &domain.ConfigurationError{
			Reason: fmt.Sprintf("index holds %d-dimensional vectors, embedding model produces %d", idx.dimensions, dimensions),
		}
	}
	idx.dimensions = dimensions
	return nil
}

// Upsert inserts or replaces chunks keyed by chunk ID.
func (idx *Index) Upsert(_ context.Context, chunks []domain.Chunk) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.dimensions == 0 {
		return fmt.Errorf("index not initialised")
	}
	for _, c := range chunks {
		if len(c.Embedding) != idx.dimensions {
			return fmt.Errorf("vector dimension mismatch for chunk %s: got %d, expected %d",
				c.ID, len(c.Embedding), idx.dimensions)
		}
		chunk := c
		chunk.Embedding = make([]float32, len(c.Embedding))
		copy(chunk.Embedding, c.Embedding)
		idx.seq++
		idx.entries[c.ID] = &entry{chunk: chunk, seq: idx.seq}
	}
	return nil
}

// Search finds at most limit chunks nearest to the query vector.
func (idx *Index) Search(_ context.Context, query []float32, limit int, filters driven.SearchFilters) ([]domain.RetrievalResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.dimensions == 0 {
		return nil, fmt.Errorf("index not initialised")
	}
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), idx.dimensions)
	}
	if limit <= 0 || len(idx.entries) == 0 {
		return []domain.RetrievalResult{}, nil
	}

	docIDs := make(map[string]struct{}, len(filters.DocumentIDs))
	for _, id := range filters.DocumentIDs {
		docIDs[id] = struct{}{}
	}

	type scored struct {
		e     *entry
		score float64
	}
	scores := make([]scored, 0, len(idx.entries))
	for _, e := range idx.entries {
		if filters.ProductVersion != "" && e.chunk.Document.ProductVersion != filters.ProductVersion {
			continue
		}
		if filters.SourceType != "" && e.chunk.Document.SourceType != filters.SourceType {
			continue
		}
		if len(docIDs) > 0 {
			if _, ok := docIDs[e.chunk.DocumentID]; !ok {
				continue
			}
		}
		scores = append(scores, scored{e: e, score: cosineSimilarity(query, e.chunk.Embedding)})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].e.seq > scores[j].e.seq
	})

	if limit > len(scores) {
		limit = len(scores)
	}
	results := make([]domain.RetrievalResult, 0, limit)
	for _, s := range scores[:limit] {
		results = append(results, domain.RetrievalResult{
			Chunk:      s.e.chunk,
			Similarity: s.score,
		})
	}
	return results, nil
}

// DeleteByDocID removes all chunks belonging to a document.
func (idx *Index) DeleteByDocID(_ context.Context, docID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for id, e := range idx.entries {
		if e.chunk.DocumentID == docID {
			delete(idx.entries, id)
		}
	}
	return nil
}

// ListDocuments returns a summary of every document in the index.
func (idx *Index) ListDocuments(_ context.Context) ([]domain.DocumentSummary, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	byDoc := make(map[string]*domain.DocumentSummary)
	for _, e := range idx.entries {
		doc := e.chunk.Document
		s, ok := byDoc[e.chunk.DocumentID]
		if !ok {
			s = &domain.DocumentSummary{
				ID:             doc.ID,
				Title:          doc.Title,
				SourceType:     doc.SourceType,
				ProductVersion: doc.ProductVersion,
				CreatedAt:      doc.CreatedAt,
			}
			byDoc[e.chunk.DocumentID] = s
		}
		s.ChunkCount++
	}

	summaries := make([]domain.DocumentSummary, 0, len(byDoc))
	for _, s := range byDoc {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

// CountChunks reports the number of stored chunks.
func (idx *Index) CountChunks(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

// Ping always succeeds for the in-memory index.
func (idx *Index) Ping(_ context.Context) error { return nil }

// Close releases the stored vectors.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = make(map[string]*entry)
	return nil
}

// cosineSimilarity returns the cosine of the angle between a and b,
// clamped to [0, 1]. Zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}
