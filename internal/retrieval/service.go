//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package retrieval combines the embedder, vector index, reranker,
// and result cache into the retrieval half of the answer pipeline.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/grag-dev/grag-server/internal/cache"
	"github.com/grag-dev/grag-server/internal/corpus"
	"github.com/grag-dev/grag-server/internal/embedding"
	"github.com/grag-dev/grag-server/internal/index"
	"github.com/grag-dev/grag-server/internal/rerank"
)

// ErrInvalidTopK is returned when a retrieval request asks for a
// non-positive number of results.
var ErrInvalidTopK = errors.New("top_k must be positive")

// Service answers retrieval requests against an in-memory index.
type Service struct {
	embedder embedding.Embedder
	index    *index.Index
	reranker *rerank.Reranker
	cache    *cache.ResultCache
	logger   *slog.Logger
}

// New creates a retrieval service.
func New(embedder embedding.Embedder, idx *index.Index, reranker *rerank.Reranker,
	resultCache *cache.ResultCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embedder: embedder,
		index:    idx,
		reranker: reranker,
		cache:    resultCache,
		logger:   logger,
	}
}

// Retrieve returns the topK chunks most relevant to the query. The
// second return value reports whether the results came from the
// cache. The index is over-fetched at twice the requested depth so
// the reranker has candidates to promote; reranking is skipped when
// nothing would be pruned.
func (s *Service) Retrieve(ctx context.Context, query string, topK int, useRerank bool) ([]corpus.ScoredChunk, bool, error) {
	if topK < 1 {
		return nil, false, ErrInvalidTopK
	}

	key := cache.Fingerprint(query, topK, useRerank)
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("retrieval cache hit", "top_k", topK)
		return cached, true, nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, false, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := s.index.Search(vectors[0], topK*2)
	if err != nil {
		return nil, false, fmt.Errorf("searching index: %w", err)
	}

	candidates := make([]corpus.ScoredChunk, len(hits))
	for i, hit := range hits {
		candidates[i] = corpus.ScoredChunk{
			Chunk: s.index.Chunk(hit.Index),
			Score: hit.Score,
		}
	}

	results := candidates
	if useRerank && len(candidates) > topK {
		results = s.reranker.Rerank(query, candidates)
	}
	if len(results) > topK {
		results = results[:topK]
	}

	s.cache.Put(key, results)
	s.logger.Debug("retrieval complete",
		"top_k", topK, "use_rerank", useRerank, "results", len(results))
	return results, false, nil
}
