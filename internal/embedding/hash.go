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
	"hash/fnv"
	"math"
	"strings"
)

// HashDimensions is the fixed dimensionality of hash-based vectors.
const HashDimensions = 128

// maxHashTokens bounds how many tokens of a text contribute to its vector.
const maxHashTokens = 50

// HashEmbedder is a deterministic embedder: each of the first 50 lowercased
// tokens is hashed into one of 128 slots and the resulting count vector is
// L2-normalized. It is a pure function of its input, which makes results
// reproducible across processes and exact-match testable.
type HashEmbedder struct{}

// NewHashEmbedder creates a deterministic hash-based embedder.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

// EmbedBatch embeds each text independently. It never fails.
func (e *HashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

// embed folds token hashes into a fixed-size count vector and normalizes.
// A text with no tokens yields the zero vector, not an error.
func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, HashDimensions)

	words := strings.Fields(strings.ToLower(text))
	if len(words) > maxHashTokens {
		words = words[:maxHashTokens]
	}
	for _, word := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum64()%HashDimensions]++
	}

	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(math.Sqrt(sumSquares))
		for i := range vec {
			vec[i] /= norm
		}
	}

	return vec
}

// Dimensions returns the fixed hash vector dimensionality.
func (e *HashEmbedder) Dimensions() int {
	return HashDimensions
}

// Ensure HashEmbedder implements the interface.
var _ Embedder = (*HashEmbedder)(nil)
