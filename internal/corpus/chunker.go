//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package corpus

import (
	"fmt"
	"strings"
)

// Default chunking parameters, in whitespace-delimited tokens.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Chunker splits documents into overlapping fixed-size word windows.
// Chunking is deterministic: the same input always yields the same chunk
// sequence and IDs, which cache keys and tests rely on.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. The overlap must be smaller than the chunk
// size so each window advances by at least one token.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits a document's whitespace-delimited tokens into windows of the
// configured size, advancing by size-overlap tokens per window. Chunk IDs
// encode the window's starting token index.
func (c *Chunker) Chunk(doc Document) []Chunk {
	words := strings.Fields(doc.Text)
	if len(words) == 0 {
		return nil
	}

	title := TitleFromDocID(doc.ID)
	stride := c.size - c.overlap

	var chunks []Chunk
	for start := 0; start < len(words); start += stride {
		end := min(start+c.size, len(words))
		chunks = append(chunks, Chunk{
			ID:    fmt.Sprintf("%s_chunk_%d", doc.ID, start),
			DocID: doc.ID,
			Text:  strings.Join(words[start:end], " "),
			Title: title,
		})
	}
	return chunks
}

// ChunkAll chunks every document in order, preserving document order in the
// resulting chunk sequence.
func (c *Chunker) ChunkAll(docs []Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.Chunk(doc)...)
	}
	return chunks
}

// TitleFromDocID derives a display title from a document ID by replacing
// underscores with spaces and title-casing each word.
func TitleFromDocID(docID string) string {
	words := strings.Split(strings.ReplaceAll(docID, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
