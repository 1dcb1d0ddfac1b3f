// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/edurag/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/edurag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/edurag/internal/adapters/driven/embedding/openai"
	groqllm "github.com/custodia-labs/edurag/internal/adapters/driven/llm/groq"
	ollamallm "github.com/custodia-labs/edurag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/edurag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/edurag/internal/adapters/driven/llm/ratelimit"
	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // Nil when completions are not configured.
	Warnings         []string          // Non-fatal issues.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init creates the embedding and completion services. An embedder is
// required because nothing can be indexed or retrieved without one. A
// missing or broken completion provider is only a warning: indexing and
// status still work, and generation reports itself unavailable.
func Init(embedding *domain.EmbeddingSettings, llm *domain.LLMSettings) (*InitResult, error) {
	embedSvc, err := CreateEmbeddingService(embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'edurag settings show' to check the configuration",
			domain.ErrEmbeddingUnavailable, err)
	}
	if embedSvc == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}

	result := &InitResult{EmbeddingService: embedSvc}

	llmSvc, err := CreateLLMService(llm)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("completion provider unavailable: %v", err))
	case llmSvc == nil:
		result.Warnings = append(result.Warnings,
			"completion provider not configured; run 'edurag settings set-key' to enable answers and papers")
	default:
		result.LLMService = llmSvc
	}

	return result, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderHashing:
		return hashing.NewEmbeddingService(hashing.Config{
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings,
// throttled when RequestsPerSecond is set. Returns nil if the provider is
// not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderGroq:
		svc, err = groqllm.NewLLMService(groqllm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return ratelimit.New(svc, settings.RequestsPerSecond, 1), nil
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    settings.Timeout,
		Dimensions: dimensions,
	})
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    settings.Timeout,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
	})
}
