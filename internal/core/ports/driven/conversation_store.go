package driven

import (
	"context"

	"github.com/opentier/supportbot/internal/core/domain"
)

// ConversationStore persists per-user conversation history.
type ConversationStore interface {
	// AppendTurn adds a turn to a conversation, creating the
	// conversation if it does not exist.
	AppendTurn(ctx context.Context, conversationID, userID string, turn domain.ConversationTurn) error

	// GetConversation returns all turns of a conversation in order.
	// Returns domain.ErrNotFound for an unknown conversation.
	GetConversation(ctx context.Context, conversationID string) ([]domain.ConversationTurn, error)

	// ListConversations returns the conversation IDs for a user, most
	// recently updated first.
	ListConversations(ctx context.Context, userID string) ([]string, error)

	// DeleteConversation removes a conversation and its turns.
	// Returns domain.ErrNotFound for an unknown conversation.
	DeleteConversation(ctx context.Context, conversationID string) error
}

// FeedbackStore persists user feedback on answers.
type FeedbackStore interface {
	// SaveFeedback stores one feedback entry.
	SaveFeedback(ctx context.Context, fb domain.Feedback) error

	// ListFeedback returns all feedback entries, newest first.
	ListFeedback(ctx context.Context) ([]domain.Feedback, error)

	// Stats aggregates the stored feedback.
	Stats(ctx context.Context) (domain.FeedbackStats, error)
}
