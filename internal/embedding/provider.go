//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package embedding

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/grag-dev/grag-server/internal/llm"
)

// ProviderEmbedder delegates to an external embedding provider and falls
// back to the deterministic hash embedder on any failure, logging the
// degradation instead of failing the caller.
//
// The fallback is sticky: once a call has degraded, later calls go straight
// to the hash embedder. Mixing provider vectors and hash vectors in one
// corpus would make similarity scores meaningless, so a single degraded
// call commits the process to hash vectors.
type ProviderEmbedder struct {
	provider llm.EmbeddingProvider
	fallback *HashEmbedder
	logger   *slog.Logger
	degraded atomic.Bool
}

// NewProviderEmbedder wraps an external provider with hash fallback.
func NewProviderEmbedder(provider llm.EmbeddingProvider, logger *slog.Logger) *ProviderEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderEmbedder{
		provider: provider,
		fallback: NewHashEmbedder(),
		logger:   logger,
	}
}

// EmbedBatch embeds via the external provider, degrading to hash vectors
// on error. It only fails if the context is cancelled.
func (e *ProviderEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.degraded.Load() {
		return e.fallback.EmbedBatch(ctx, texts)
	}

	vectors, err := e.provider.EmbedBatch(ctx, texts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.degraded.Store(true)
		e.logger.Warn("embedding provider failed, falling back to hash embedder",
			"model", e.provider.ModelName(),
			"error", err)
		if pd := e.provider.Dimensions(); pd != e.fallback.Dimensions() {
			// Vectors embedded before this point have the provider's
			// dimensionality and will score zero against hash queries.
			e.logger.Warn("embedding dimensionality changed on fallback, restart to re-embed the corpus",
				"provider_dimensions", pd,
				"fallback_dimensions", e.fallback.Dimensions())
		}
		return e.fallback.EmbedBatch(ctx, texts)
	}

	return vectors, nil
}

// Dimensions returns the provider's dimensionality, or the hash embedder's
// once degraded.
func (e *ProviderEmbedder) Dimensions() int {
	if e.degraded.Load() {
		return e.fallback.Dimensions()
	}
	return e.provider.Dimensions()
}

// Degraded reports whether the embedder has fallen back to hash vectors.
func (e *ProviderEmbedder) Degraded() bool {
	return e.degraded.Load()
}

// Ensure ProviderEmbedder implements the interface.
var _ Embedder = (*ProviderEmbedder)(nil)
