//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package index provides an in-memory vector index over corpus chunks
// with brute-force cosine similarity search.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/grag-dev/grag-server/internal/corpus"
)

// Index holds corpus chunks alongside their embedding vectors. The
// vector at position i always belongs to the chunk at position i.
// An Index is immutable after construction and safe for concurrent
// searches.
type Index struct {
	chunks  []corpus.Chunk
	vectors [][]float32
}

// Hit is a single search result referencing a chunk by its position
// in the index.
type Hit struct {
	Index int
	Score float64
}

// New builds an index from parallel chunk and vector slices.
func New(chunks []corpus.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunk count %d does not match vector count %d",
			len(chunks), len(vectors))
	}
	return &Index{chunks: chunks, vectors: vectors}, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Chunk returns the chunk at position i.
func (idx *Index) Chunk(i int) corpus.Chunk {
	return idx.chunks[i]
}

// Search returns the k chunks most similar to the query vector,
// ordered by descending cosine similarity. Ties are broken by
// ascending corpus position so results are deterministic. k is
// clamped to the corpus size.
func (idx *Index) Search(query []float32, k int) ([]Hit, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(idx.chunks) == 0 {
		return nil, nil
	}

	hits := make([]Hit, len(idx.vectors))
	for i, vec := range idx.vectors {
		hits[i] = Hit{Index: i, Score: Cosine(query, vec)}
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Index < hits[b].Index
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Cosine computes the cosine similarity of two vectors. It returns 0
// when either vector is all zeros or the dimensions do not match, so
// unembeddable text never ranks above real matches.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
