package domain

import "time"

// TurnRole identifies who produced a conversation turn.
type TurnRole string

// Conversation turn roles.
const (
	// RoleUser is a turn written by the end user.
	RoleUser TurnRole = "user"

	// RoleAssistant is a turn written by the chatbot.
	RoleAssistant TurnRole = "assistant"
)

// ConversationTurn is an append-only chat log entry scoped to a
// conversation identifier. Turns are created on each chat exchange;
// they are never updated, only appended.
type ConversationTurn struct {
	// Role is who produced the turn.
	Role TurnRole `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// Timestamp is when the turn was appended.
	Timestamp time.Time `json:"timestamp"`

	// Sources are the citations attached to an assistant turn.
	Sources []SourceCitation `json:"sources,omitempty"`

	// Confidence is the overall answer confidence for assistant turns.
	Confidence *float64 `json:"confidence,omitempty"`

	// Fallback marks assistant turns that carried the fixed
	// "not enough information" answer.
	Fallback bool `json:"fallback,omitempty"`
}

// Feedback is a user rating of a conversation, stored append-only.
type Feedback struct {
	// ID is the unique feedback identifier.
	ID string `json:"feedback_id"`

	// ConversationID links to the rated conversation.
	ConversationID string `json:"conversation_id"`

	// UserID identifies who rated.
	UserID string `json:"user_id"`

	// Rating is in [1,5].
	Rating int `json:"rating"`

	// Text is optional free-form feedback.
	Text string `json:"feedback_text,omitempty"`

	// Timestamp is when the feedback was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// FeedbackStats is the analytics view over recorded feedback.
type FeedbackStats struct {
	// Total is the number of feedback entries.
	Total int `json:"total_feedback"`

	// AverageRating is the mean rating, rounded to 2 decimals.
	// Zero when no feedback exists.
	AverageRating float64 `json:"average_rating"`

	// RatingDistribution is a histogram over ratings 1-5,
	// keyed by the rating as a string.
	RatingDistribution map[string]int `json:"rating_distribution"`
}
