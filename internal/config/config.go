// Package config loads the service configuration from a TOML file
// with environment overrides for secrets. A .env file in the working
// directory is honoured for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/opentier/supportbot/internal/core/domain"
)

// Environment variable names for secrets. Secrets never live in the
// TOML file.
const (
	EnvOpenAIAPIKey    = "SUPPORTBOT_OPENAI_API_KEY"
	EnvAnthropicAPIKey = "SUPPORTBOT_ANTHROPIC_API_KEY"
	EnvZendeskToken    = "SUPPORTBOT_ZENDESK_TOKEN"
	EnvJiraAPIToken    = "SUPPORTBOT_JIRA_API_TOKEN"
)

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig    `toml:"server"`
	Embedding  AIConfig        `toml:"embedding"`
	Generation AIConfig        `toml:"generation"`
	Retrieval  RetrievalConfig `toml:"retrieval"`
	Vector     VectorConfig    `toml:"vector"`
	Zendesk    ZendeskConfig   `toml:"zendesk"`
	Jira       JiraConfig      `toml:"jira"`
	Watch      WatchConfig     `toml:"watch"`
	Debug      bool            `toml:"debug"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `toml:"host"`
	Port            int           `toml:"port"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// AIConfig configures one AI provider (embedding or generation).
type AIConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	Dimensions int    `toml:"dimensions"`

	// APIKey is filled from the environment, never from TOML.
	APIKey string `toml:"-"`
}

// RetrievalConfig tunes the retrieval pipeline.
type RetrievalConfig struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MaxRetrievedChunks  int     `toml:"max_retrieved_chunks"`
	ChunkSize           int     `toml:"chunk_size"`
	MaxAnswerTokens     int     `toml:"max_answer_tokens"`
}

// VectorConfig selects and configures the vector index backend.
type VectorConfig struct {
	Backend string `toml:"backend"`
	DataDir string `toml:"data_dir"`
}

// ZendeskConfig configures the Zendesk extractor.
type ZendeskConfig struct {
	Subdomain string `toml:"subdomain"`
	Email     string `toml:"email"`
	APIToken  string `toml:"-"`
}

// JiraConfig configures the Jira extractor.
type JiraConfig struct {
	BaseURL  string `toml:"base_url"`
	Email    string `toml:"email"`
	APIToken string `toml:"-"`
}

// WatchConfig configures the drop-directory watcher.
type WatchConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Embedding: AIConfig{
			Provider: string(domain.AIProviderOllama),
		},
		Generation: AIConfig{
			Provider: string(domain.AIProviderOllama),
		},
		Retrieval: RetrievalConfig{
			SimilarityThreshold: domain.DefaultSimilarityThreshold,
			MaxRetrievedChunks:  domain.DefaultMaxRetrievedChunks,
			ChunkSize:           domain.DefaultChunkSize,
			MaxAnswerTokens:     domain.DefaultMaxAnswerTokens,
		},
		Vector: VectorConfig{
			Backend: string(domain.VectorBackendSQLite),
		},
	}
}

// Load reads the configuration from path. A missing file yields the
// defaults; a malformed one is an error. Secrets come from the
// environment in all cases.
func Load(path string) (Config, error) {
	// Best effort; absence of a .env file is normal.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults
		case err != nil:
			return Config{}, fmt.Errorf("reading config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv fills secrets from the environment.
func applyEnv(cfg *Config) {
	if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
		if cfg.Embedding.Provider == string(domain.AIProviderOpenAI) {
			cfg.Embedding.APIKey = key
		}
		if cfg.Generation.Provider == string(domain.AIProviderOpenAI) {
			cfg.Generation.APIKey = key
		}
	}
	if key := os.Getenv(EnvAnthropicAPIKey); key != "" {
		if cfg.Generation.Provider == string(domain.AIProviderAnthropic) {
			cfg.Generation.APIKey = key
		}
	}
	cfg.Zendesk.APIToken = os.Getenv(EnvZendeskToken)
	cfg.Jira.APIToken = os.Getenv(EnvJiraAPIToken)
}

// Validate checks provider names, backend names, and required keys.
func (c Config) Validate() error {
	embProvider := domain.AIProvider(c.Embedding.Provider)
	if !embProvider.IsValid() || embProvider == domain.AIProviderAnthropic {
		return &domain.ConfigurationError{
			Reason: fmt.Sprintf("unsupported embedding provider %q", c.Embedding.Provider),
		}
	}
	genProvider := domain.AIProvider(c.Generation.Provider)
	if !genProvider.IsValid() {
		return &domain.ConfigurationError{
			Reason: fmt.Sprintf("unsupported generation provider %q", c.Generation.Provider),
		}
	}
	if embProvider.RequiresAPIKey() && c.Embedding.APIKey == "" {
		return &domain.ConfigurationError{
			Reason: fmt.Sprintf("embedding provider %s requires %s", embProvider, EnvOpenAIAPIKey),
		}
	}
	if genProvider.RequiresAPIKey() && c.Generation.APIKey == "" {
		env := EnvOpenAIAPIKey
		if genProvider == domain.AIProviderAnthropic {
			env = EnvAnthropicAPIKey
		}
		return &domain.ConfigurationError{
			Reason: fmt.Sprintf("generation provider %s requires %s", genProvider, env),
		}
	}
	if !domain.VectorBackend(c.Vector.Backend).IsValid() {
		return &domain.ConfigurationError{
			Reason: fmt.Sprintf("unsupported vector backend %q", c.Vector.Backend),
		}
	}
	if c.Retrieval.SimilarityThreshold < 0 || c.Retrieval.SimilarityThreshold > 1 {
		return &domain.ConfigurationError{
			Reason: fmt.Sprintf("similarity_threshold must be in [0,1], got %g", c.Retrieval.SimilarityThreshold),
		}
	}
	if c.Retrieval.MaxRetrievedChunks <= 0 {
		return &domain.ConfigurationError{Reason: "max_retrieved_chunks must be positive"}
	}
	if c.Retrieval.ChunkSize <= 0 {
		return &domain.ConfigurationError{Reason: "chunk_size must be positive"}
	}
	return nil
}

// EmbeddingSettings converts to the domain settings shape.
func (c Config) EmbeddingSettings() domain.EmbeddingSettings {
	return domain.EmbeddingSettings{
		Provider:   domain.AIProvider(c.Embedding.Provider),
		Model:      c.Embedding.Model,
		BaseURL:    c.Embedding.BaseURL,
		APIKey:     c.Embedding.APIKey,
		Dimensions: c.Embedding.Dimensions,
	}
}

// GenerationSettings converts to the domain settings shape.
func (c Config) GenerationSettings() domain.GenerationSettings {
	return domain.GenerationSettings{
		Provider: domain.AIProvider(c.Generation.Provider),
		Model:    c.Generation.Model,
		BaseURL:  c.Generation.BaseURL,
		APIKey:   c.Generation.APIKey,
	}
}

// RetrievalSettings converts to the domain settings shape.
func (c Config) RetrievalSettings() domain.RetrievalSettings {
	return domain.RetrievalSettings{
		SimilarityThreshold: c.Retrieval.SimilarityThreshold,
		MaxRetrievedChunks:  c.Retrieval.MaxRetrievedChunks,
		ChunkSize:           c.Retrieval.ChunkSize,
		MaxAnswerTokens:     c.Retrieval.MaxAnswerTokens,
	}
}

// Addr is the HTTP listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
