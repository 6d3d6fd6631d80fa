//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package embedding maps text to fixed-dimension vectors. Two strategies
// exist behind one interface: a deterministic hash-based embedder and a
// provider-backed embedder that degrades to the hash embedder on failure.
// The strategy is chosen once at startup, not per call.
package embedding

import "context"

// Embedder maps texts to fixed-dimension vectors. The dimension is the
// same for every call within a process lifetime.
type Embedder interface {
	// EmbedBatch generates vectors for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of vectors produced.
	Dimensions() int
}
