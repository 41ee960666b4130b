package domain

import "strings"

// ChatRequest is the input shape for a chat exchange.
type ChatRequest struct {
	// UserID identifies the asking user.
	UserID string `json:"user_id"`

	// Query is the user's question. Must be non-empty after trimming.
	Query string `json:"query"`

	// ProductVersion optionally restricts retrieval to one version.
	ProductVersion string `json:"product_version,omitempty"`

	// ConversationID continues an existing conversation. A fresh id
	// is generated when absent.
	ConversationID string `json:"conversation_id,omitempty"`

	// DocumentIDs optionally restricts retrieval to specific documents.
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// Validate checks the request before any external call is made.
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(r.Query) == "" {
		return &ValidationError{Field: "query", Reason: "must not be empty"}
	}
	return nil
}

// ChatResponse is the output shape for a chat exchange.
// A confidence-gate fallback is a successful response with
// FallbackTriggered set; it is not an error.
type ChatResponse struct {
	// Answer is the generated (or fallback) answer text.
	Answer string `json:"answer"`

	// Sources are the per-document citations. Empty on fallback.
	Sources []SourceCitation `json:"sources"`

	// ConversationID echoes or assigns the conversation identifier.
	ConversationID string `json:"conversation_id"`

	// Confidence is the overall answer confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// FallbackTriggered reports whether the confidence gate fired.
	FallbackTriggered bool `json:"fallback_triggered"`
}

// FeedbackRequest is the input shape for the feedback surface.
type FeedbackRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Rating         int    `json:"rating"`
	Text           string `json:"feedback_text,omitempty"`
}

// Validate checks the feedback request.
func (r *FeedbackRequest) Validate() error {
	if strings.TrimSpace(r.ConversationID) == "" {
		return &ValidationError{Field: "conversation_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(r.UserID) == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if r.Rating < 1 || r.Rating > 5 {
		return &ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}
	return nil
}

// IngestSource describes one source within an ingestion request.
type IngestSource struct {
	// SourceType selects the extractor.
	SourceType SourceType `json:"source_type"`

	// Params are extractor-specific parameters: file_path, title,
	// product_version, tags, limit, jql, ...
	Params map[string]any `json:"params,omitempty"`
}

// IngestRequest is the input shape for an ingestion batch.
type IngestRequest struct {
	Sources []IngestSource `json:"sources"`
}

// Validate checks the ingestion request.
func (r *IngestRequest) Validate() error {
	if len(r.Sources) == 0 {
		return &ValidationError{Field: "sources", Reason: "must not be empty"}
	}
	for _, src := range r.Sources {
		if !src.SourceType.IsValid() {
			return &ValidationError{Field: "source_type", Reason: "unknown source type " + string(src.SourceType)}
		}
	}
	return nil
}

// IngestReport carries the aggregate counts for an ingestion batch.
// A non-empty Errors slice does not imply total failure: sibling
// sources continue past a single source's extraction failure.
type IngestReport struct {
	DocumentsProcessed int      `json:"documents_processed"`
	ChunksCreated      int      `json:"chunks_created"`
	Errors             []string `json:"errors"`

	// TaskID is set when the batch was dispatched as a background task.
	TaskID string `json:"task_id,omitempty"`
}
