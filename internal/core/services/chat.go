package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
	"github.com/opentier/supportbot/internal/core/ports/driving"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// FallbackAnswer is returned when retrieval confidence is too low to
// ground an answer.
const FallbackAnswer = "I don't have enough information to answer that question. Please contact our support team for assistance."

// topConfidenceCount is how many top similarities feed the overall
// confidence score.
const topConfidenceCount = 3

// ChatService answers questions grounded in the indexed corpus.
type ChatService struct {
	embedder      driven.EmbeddingService
	index         driven.VectorIndex
	generator     driven.GenerationService
	conversations driven.ConversationStore
	settings      domain.RetrievalSettings
	logger        *zap.Logger
}

// NewChatService creates the chat service.
func NewChatService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	generator driven.GenerationService,
	conversations driven.ConversationStore,
	settings domain.RetrievalSettings,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		embedder:      embedder,
		index:         index,
		generator:     generator,
		conversations: conversations,
		settings:      settings,
		logger:        logger,
	}
}

// Chat retrieves relevant chunks and generates a grounded answer.
//
// The confidence gate runs before any generation call: when retrieval
// returns nothing, or the best similarity falls strictly below the
// threshold, the canned fallback answer is returned without invoking
// the model. A top similarity exactly at the threshold passes the gate.
func (s *ChatService) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	// The user turn is logged before retrieval so the question survives
	// even when a downstream provider fails.
	if err := s.conversations.AppendTurn(ctx, conversationID, req.UserID, domain.ConversationTurn{
		Role:      domain.RoleUser,
		Content:   req.Query,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("recording user turn: %w", err)
	}

	queryVec, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.index.Search(ctx, queryVec, s.settings.MaxRetrievedChunks, driven.SearchFilters{
		ProductVersion: req.ProductVersion,
		DocumentIDs:    req.DocumentIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	if len(results) == 0 || results[0].Similarity < s.settings.SimilarityThreshold {
		topSim := 0.0
		if len(results) > 0 {
			topSim = results[0].Similarity
		}
		s.logger.Info("fallback triggered",
			zap.String("conversation_id", conversationID),
			zap.Int("results", len(results)),
			zap.Float64("top_similarity", topSim),
			zap.Float64("threshold", s.settings.SimilarityThreshold),
		)
		resp := &domain.ChatResponse{
			Answer:            FallbackAnswer,
			Sources:           []domain.SourceCitation{},
			ConversationID:    conversationID,
			Confidence:        0.0,
			FallbackTriggered: true,
		}
		if err := s.recordAnswer(ctx, conversationID, req.UserID, resp); err != nil {
			return nil, err
		}
		return resp, nil
	}

	passages := make([]driven.ContextPassage, 0, len(results))
	for _, r := range results {
		passages = append(passages, driven.ContextPassage{
			DocTitle:   r.Chunk.Document.Title,
			SourceType: string(r.Chunk.Document.SourceType),
			Content:    r.Chunk.Content,
		})
	}

	answer, err := s.generator.Generate(ctx, req.Query, passages, driven.GenerateOptions{
		MaxTokens: s.settings.MaxAnswerTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	resp := &domain.ChatResponse{
		Answer:            answer,
		Sources:           aggregateSources(results),
		ConversationID:    conversationID,
		Confidence:        overallConfidence(results),
		FallbackTriggered: false,
	}
	if err := s.recordAnswer(ctx, conversationID, req.UserID, resp); err != nil {
		return nil, err
	}

	s.logger.Info("answered",
		zap.String("conversation_id", conversationID),
		zap.Int("sources", len(resp.Sources)),
		zap.Float64("confidence", resp.Confidence),
	)
	return resp, nil
}

// recordAnswer appends the assistant turn to history.
func (s *ChatService) recordAnswer(ctx context.Context, conversationID, userID string, resp *domain.ChatResponse) error {
	confidence := resp.Confidence
	if err := s.conversations.AppendTurn(ctx, conversationID, userID, domain.ConversationTurn{
		Role:       domain.RoleAssistant,
		Content:    resp.Answer,
		Timestamp:  time.Now().UTC(),
		Sources:    resp.Sources,
		Confidence: &confidence,
		Fallback:   resp.FallbackTriggered,
	}); err != nil {
		return fmt.Errorf("recording assistant turn: %w", err)
	}
	return nil
}

// GetConversation returns the turns of a conversation in order.
func (s *ChatService) GetConversation(ctx context.Context, conversationID string) ([]domain.ConversationTurn, error) {
	return s.conversations.GetConversation(ctx, conversationID)
}

// ListConversations returns a user's conversation IDs, most recently
// updated first.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]string, error) {
	return s.conversations.ListConversations(ctx, userID)
}

// DeleteConversation removes a conversation and its history.
func (s *ChatService) DeleteConversation(ctx context.Context, conversationID string) error {
	return s.conversations.DeleteConversation(ctx, conversationID)
}

// aggregateSources groups retrieval results into one citation per
// (title, source type) pair. The citation's confidence is the best
// similarity in its group; group order follows first appearance in
// the result ranking, so the strongest documents cite first.
func aggregateSources(results []domain.RetrievalResult) []domain.SourceCitation {
	type key struct {
		title      string
		sourceType domain.SourceType
	}

	var citations []domain.SourceCitation
	position := make(map[key]int)
	for _, r := range results {
		doc := r.Chunk.Document
		k := key{title: doc.Title, sourceType: doc.SourceType}

		if i, seen := position[k]; seen {
			if r.Similarity > citations[i].Confidence {
				citations[i].Confidence = r.Similarity
			}
			continue
		}

		citation := domain.SourceCitation{
			DocTitle:   doc.Title,
			SourceType: doc.SourceType,
			Confidence: r.Similarity,
			ChunkID:    r.Chunk.ID,
		}
		if id, ok := doc.Metadata["ticket_id"].(string); ok {
			citation.TicketID = id
		}
		position[k] = len(citations)
		citations = append(citations, citation)
	}
	return citations
}

// overallConfidence is the mean of the top min(3, n) similarities.
// Results arrive already sorted descending.
func overallConfidence(results []domain.RetrievalResult) float64 {
	if len(results) == 0 {
		return 0
	}
	n := topConfidenceCount
	if len(results) < n {
		n = len(results)
	}
	var sum float64
	for _, r := range results[:n] {
		sum += r.Similarity
	}
	return sum / float64(n)
}
