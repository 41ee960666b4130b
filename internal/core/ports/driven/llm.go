package driven

import "context"

// GenerationService produces grounded answers from retrieved context.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini)
//   - Anthropic (Claude)
//   - Ollama (local models)
type GenerationService interface {
	// Generate produces an answer to the query grounded in the given
	// passages. The model is instructed to answer only from the
	// passages and to say so when they do not contain the answer.
	Generate(ctx context.Context, query string, passages []ContextPassage, opts GenerateOptions) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ContextPassage is one retrieved chunk handed to the model, numbered
// so the prompt can cite it as [Source N].
type ContextPassage struct {
	// DocTitle is the title of the document the passage came from.
	DocTitle string

	// SourceType is the origin of the document ("zendesk", "pdf", ...).
	SourceType string

	// Content is the passage text.
	Content string
}

// GenerateOptions configures answer generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
