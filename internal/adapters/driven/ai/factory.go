// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/opentier/supportbot/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/opentier/supportbot/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/opentier/supportbot/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/opentier/supportbot/internal/adapters/driven/llm/ollama"
	openaillm "github.com/opentier/supportbot/internal/adapters/driven/llm/openai"
	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates an embedding service for the configured provider.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})
	default:
		return nil, &domain.ConfigurationError{
			Reason: fmt.Sprintf("unsupported embedding provider %q", settings.Provider),
		}
	}
}

// CreateGenerationService creates a generation service for the configured provider.
func CreateGenerationService(settings domain.GenerationSettings) (driven.GenerationService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewGenerationService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewGenerationService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderAnthropic:
		return anthropicllm.NewGenerationService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	default:
		return nil, &domain.ConfigurationError{
			Reason: fmt.Sprintf("unsupported generation provider %q", settings.Provider),
		}
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and
// validates connectivity before handing it out.
func CreateAndValidateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, &domain.ConfigurationError{
			Reason: fmt.Sprintf("embedding service unreachable: %v", err),
		}
	}
	return svc, nil
}

// CreateAndValidateGenerationService creates a generation service and
// validates connectivity before handing it out.
func CreateAndValidateGenerationService(settings domain.GenerationSettings) (driven.GenerationService, error) {
	svc, err := CreateGenerationService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, &domain.ConfigurationError{
			Reason: fmt.Sprintf("generation service unreachable: %v", err),
		}
	}
	return svc, nil
}

// ValidateIndexDimensions initialises the vector index for the
// embedding model's dimensionality. A mismatch with an existing corpus
// is a fatal configuration error, not something to paper over.
func ValidateIndexDimensions(ctx context.Context, index driven.VectorIndex, embedder driven.EmbeddingService) error {
	if err := index.Init(ctx, embedder.Dimensions()); err != nil {
		return fmt.Errorf("initialising vector index for %s: %w", embedder.ModelName(), err)
	}
	return nil
}
