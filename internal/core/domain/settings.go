package domain

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// VectorBackend identifies a vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory keeps vectors in process memory.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendSQLite persists vectors in a SQLite database.
	VectorBackendSQLite VectorBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's default vector size.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// GenerationSettings holds text-generation provider configuration.
type GenerationSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the generation provider is set up.
func (g GenerationSettings) IsConfigured() bool {
	if !g.Provider.IsValid() {
		return false
	}
	if g.Provider.RequiresAPIKey() && g.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings holds the retrieval pipeline tuning knobs.
type RetrievalSettings struct {
	// SimilarityThreshold is the minimum top-result similarity
	// required to attempt generation. Below it, the confidence gate
	// triggers the fallback answer.
	SimilarityThreshold float64

	// MaxRetrievedChunks is the search limit per query.
	MaxRetrievedChunks int

	// ChunkSize is the chunking size budget in characters.
	ChunkSize int

	// MaxAnswerTokens caps the generated answer length.
	MaxAnswerTokens int
}

// Default retrieval tuning values.
const (
	DefaultSimilarityThreshold = 0.25
	DefaultMaxRetrievedChunks  = 5
	DefaultChunkSize           = 500
	DefaultMaxAnswerTokens     = 1000
)

// DefaultRetrievalSettings returns the stock retrieval configuration.
func DefaultRetrievalSettings() RetrievalSettings {
	return RetrievalSettings{
		SimilarityThreshold: DefaultSimilarityThreshold,
		MaxRetrievedChunks:  DefaultMaxRetrievedChunks,
		ChunkSize:           DefaultChunkSize,
		MaxAnswerTokens:     DefaultMaxAnswerTokens,
	}
}
