//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package rerank reorders retrieval candidates by blending the vector
// similarity score with a lexical word-overlap signal. The lexical
// component rescues exact keyword matches that a coarse embedding
// under-ranks.
package rerank

import (
	"sort"
	"strings"

	"github.com/grag-dev/grag-server/internal/corpus"
)

// Default blend weights.
const (
	DefaultVectorWeight  = 0.7
	DefaultLexicalWeight = 0.3
)

// Reranker blends vector and lexical scores. The weights are fixed at
// construction.
type Reranker struct {
	vectorWeight  float64
	lexicalWeight float64
}

// New returns a reranker with the given blend weights.
func New(vectorWeight, lexicalWeight float64) *Reranker {
	return &Reranker{
		vectorWeight:  vectorWeight,
		lexicalWeight: lexicalWeight,
	}
}

// NewDefault returns a reranker with the standard 0.7/0.3 blend.
func NewDefault() *Reranker {
	return New(DefaultVectorWeight, DefaultLexicalWeight)
}

// Rerank returns the candidates reordered by descending blended
// score. Candidates whose blended scores are equal keep their
// incoming relative order. The input slice is not modified.
func (r *Reranker) Rerank(query string, candidates []corpus.ScoredChunk) []corpus.ScoredChunk {
	if len(candidates) == 0 {
		return nil
	}

	queryWords := wordSet(query)

	out := make([]corpus.ScoredChunk, len(candidates))
	for i, cand := range candidates {
		overlap := overlapRatio(queryWords, wordSet(cand.Text))
		cand.Score = r.vectorWeight*cand.Score + r.lexicalWeight*overlap
		out[i] = cand
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	return out
}

// overlapRatio is |query ∩ chunk| / |query|, with an empty query
// counting as zero overlap.
func overlapRatio(query, chunk map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	shared := 0
	for w := range query {
		if _, ok := chunk[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(query))
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
