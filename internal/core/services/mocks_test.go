package services

import (
	"context"
	"fmt"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
)

// mockEmbedder returns canned vectors keyed by text. Unknown texts get
// the fallback vector so ingestion of arbitrary fixtures still works.
type mockEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	calls    int
	err      error
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return len(m.fallback) }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockIndex returns preset search results and records calls.
type mockIndex struct {
	results     []domain.RetrievalResult
	searchErr   error
	lastFilters driven.SearchFilters
	lastLimit   int
	upserted    [][]domain.Chunk
	deleted     []string
}

var _ driven.VectorIndex = (*mockIndex)(nil)

func (m *mockIndex) Init(_ context.Context, _ int) error { return nil }

func (m *mockIndex) Upsert(_ context.Context, chunks []domain.Chunk) error {
	m.upserted = append(m.upserted, chunks)
	return nil
}

func (m *mockIndex) Search(_ context.Context, _ []float32, limit int, filters driven.SearchFilters) ([]domain.RetrievalResult, error) {
	m.lastLimit = limit
	m.lastFilters = filters
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

func (m *mockIndex) DeleteByDocID(_ context.Context, docID string) error {
	m.deleted = append(m.deleted, docID)
	return nil
}

func (m *mockIndex) ListDocuments(_ context.Context) ([]domain.DocumentSummary, error) {
	return nil, nil
}
func (m *mockIndex) CountChunks(_ context.Context) (int, error) { return 0, nil }
func (m *mockIndex) Ping(_ context.Context) error               { return nil }
func (m *mockIndex) Close() error                               { return nil }

// mockGenerator returns a canned answer and records its inputs.
type mockGenerator struct {
	answer       string
	err          error
	calls        int
	lastQuery    string
	lastPassages []driven.ContextPassage
}

var _ driven.GenerationService = (*mockGenerator)(nil)

func (m *mockGenerator) Generate(_ context.Context, query string, passages []driven.ContextPassage, _ driven.GenerateOptions) (string, error) {
	m.calls++
	m.lastQuery = query
	m.lastPassages = passages
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockGenerator) ModelName() string            { return "mock-llm" }
func (m *mockGenerator) Ping(_ context.Context) error { return nil }
func (m *mockGenerator) Close() error                 { return nil }

// mockConversations records appended turns in memory.
type mockConversations struct {
	turns map[string][]domain.ConversationTurn
	users map[string]string
}

var _ driven.ConversationStore = (*mockConversations)(nil)

func newMockConversations() *mockConversations {
	return &mockConversations{
		turns: make(map[string][]domain.ConversationTurn),
		users: make(map[string]string),
	}
}

func (m *mockConversations) AppendTurn(_ context.Context, conversationID, userID string, turn domain.ConversationTurn) error {
	m.turns[conversationID] = append(m.turns[conversationID], turn)
	m.users[conversationID] = userID
	return nil
}

func (m *mockConversations) GetConversation(_ context.Context, conversationID string) ([]domain.ConversationTurn, error) {
	turns, ok := m.turns[conversationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return turns, nil
}

func (m *mockConversations) ListConversations(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for id, u := range m.users {
		if u == userID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockConversations) DeleteConversation(_ context.Context, conversationID string) error {
	if _, ok := m.turns[conversationID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.turns, conversationID)
	delete(m.users, conversationID)
	return nil
}

// mockExtractor hands back preset documents.
type mockExtractor struct {
	sourceType domain.SourceType
	batch      *driven.ExtractedBatch
	err        error
}

var _ driven.Extractor = (*mockExtractor)(nil)

func (m *mockExtractor) SourceType() domain.SourceType { return m.sourceType }

func (m *mockExtractor) Extract(_ context.Context, _ map[string]any) (*driven.ExtractedBatch, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.batch, nil
}

// mockRegistry routes to preset extractors.
type mockRegistry struct {
	extractors map[domain.SourceType]driven.Extractor
}

func (m *mockRegistry) Get(sourceType domain.SourceType) (driven.Extractor, error) {
	e, ok := m.extractors[sourceType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, sourceType)
	}
	return e, nil
}

// result builds a retrieval result for a chunk of the given document.
func result(chunkID, docTitle string, sourceType domain.SourceType, similarity float64) domain.RetrievalResult {
	return domain.RetrievalResult{
		Chunk: domain.Chunk{
			ID:         chunkID,
			DocumentID: "doc-" + docTitle,
			Content:    "content of " + chunkID,
			Document: domain.Document{
				ID:         "doc-" + docTitle,
				Title:      docTitle,
				SourceType: sourceType,
			},
		},
		Similarity: similarity,
	}
}
