//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package corpus provides document loading and chunking for the retrieval
// engine. A corpus is loaded once at startup and treated as immutable for
// the remainder of the process.
package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document is a raw source document before chunking.
type Document struct {
	ID   string
	Text string
}

// Chunk is a fixed-size overlapping slice of a source document. Chunks are
// immutable once created; identity is the ID, unique within a corpus.
type Chunk struct {
	ID    string `json:"id"`
	DocID string `json:"doc_id"`
	Text  string `json:"text"`
	Title string `json:"title"`
}

// ScoredChunk is a chunk paired with a retrieval score. Produced transiently
// per retrieval call.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// Source supplies an ordered sequence of documents at startup.
type Source interface {
	Load(ctx context.Context) ([]Document, error)
}

// DirSource loads *.md files from a directory, ordered by file name.
// The document ID is the file name without extension.
type DirSource struct {
	Dir string
}

// Load reads all markdown files from the directory. A missing directory is
// not an error; it yields an empty corpus so the sample fallback can apply.
func (s DirSource) Load(ctx context.Context) ([]Document, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	var docs []Document
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", entry.Name(), err)
		}
		docs = append(docs, Document{
			ID:   strings.TrimSuffix(entry.Name(), ".md"),
			Text: string(data),
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}
