//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package factory provides functions to create LLM providers from configuration.
package factory

import (
	"fmt"
	"strings"

	"github.com/grag-dev/grag-server/internal/llm"
	"github.com/grag-dev/grag-server/internal/llm/ollama"
	"github.com/grag-dev/grag-server/internal/llm/openai"
)

// Provider constants for matching configuration values.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// NewEmbeddingProvider creates an embedding provider based on configuration.
// An empty baseURL uses the provider's default endpoint.
func NewEmbeddingProvider(
	providerType string,
	model string,
	baseURL string,
	apiKey string,
) (llm.EmbeddingProvider, error) {
	provider := strings.ToLower(providerType)

	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key not configured")
		}
		opts := []openai.EmbeddingOption{
			openai.WithEmbeddingClient(newOpenAIClient(apiKey, baseURL)),
		}
		if model != "" {
			opts = append(opts, openai.WithEmbeddingModel(model))
		}
		return openai.NewEmbeddingProvider(apiKey, opts...), nil

	case ProviderOllama:
		opts := []ollama.EmbeddingOption{
			ollama.WithEmbeddingClient(newOllamaClient(baseURL)),
		}
		if model != "" {
			opts = append(opts, ollama.WithEmbeddingModel(model))
		}
		return ollama.NewEmbeddingProvider(opts...), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", providerType)
	}
}

// NewCompletionProvider creates a completion provider based on configuration.
// An empty baseURL uses the provider's default endpoint.
func NewCompletionProvider(
	providerType string,
	model string,
	baseURL string,
	apiKey string,
) (llm.CompletionProvider, error) {
	provider := strings.ToLower(providerType)

	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key not configured")
		}
		opts := []openai.CompletionOption{
			openai.WithCompletionClient(newOpenAIClient(apiKey, baseURL)),
		}
		if model != "" {
			opts = append(opts, openai.WithCompletionModel(model))
		}
		return openai.NewCompletionProvider(apiKey, opts...), nil

	case ProviderOllama:
		opts := []ollama.CompletionOption{
			ollama.WithCompletionClient(newOllamaClient(baseURL)),
		}
		if model != "" {
			opts = append(opts, ollama.WithCompletionModel(model))
		}
		return ollama.NewCompletionProvider(opts...), nil

	default:
		return nil, fmt.Errorf("unknown completion provider: %s", providerType)
	}
}

func newOpenAIClient(apiKey, baseURL string) *openai.Client {
	if baseURL == "" {
		return openai.NewClient(apiKey)
	}
	return openai.NewClient(apiKey, openai.WithBaseURL(baseURL))
}

func newOllamaClient(baseURL string) *ollama.Client {
	if baseURL == "" {
		return ollama.NewClient()
	}
	return ollama.NewClient(ollama.WithBaseURL(baseURL))
}
