package driving

import (
	"context"

	"github.com/opentier/supportbot/internal/core/domain"
)

// ChatService answers user questions grounded in the indexed corpus.
type ChatService interface {
	// Chat retrieves relevant chunks, generates a grounded answer, and
	// records the exchange in conversation history. When retrieval
	// confidence is too low it returns the fallback answer instead of
	// calling the model.
	Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)

	// GetConversation returns the turns of a conversation in order.
	GetConversation(ctx context.Context, conversationID string) ([]domain.ConversationTurn, error)

	// ListConversations returns a user's conversation IDs, most
	// recently updated first.
	ListConversations(ctx context.Context, userID string) ([]string, error)

	// DeleteConversation removes a conversation and its history.
	DeleteConversation(ctx context.Context, conversationID string) error
}

// FeedbackService records and aggregates answer feedback.
type FeedbackService interface {
	// SubmitFeedback validates and stores one feedback entry, returning
	// its assigned ID.
	SubmitFeedback(ctx context.Context, req domain.FeedbackRequest) (string, error)

	// FeedbackStats aggregates all stored feedback.
	FeedbackStats(ctx context.Context) (domain.FeedbackStats, error)
}
