//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package rerank

import (
	"math"
	"testing"

	"github.com/grag-dev/grag-server/internal/corpus"
)

func scored(id, text string, score float64) corpus.ScoredChunk {
	return corpus.ScoredChunk{
		Chunk: corpus.Chunk{ID: id, Text: text},
		Score: score,
	}
}

func TestRerank_BlendsScores(t *testing.T) {
	r := NewDefault()

	// Both query words appear in the chunk, so overlap is 1.0.
	out := r.Rerank("vector search", []corpus.ScoredChunk{
		scored("a", "vector search over embeddings", 0.5),
	})

	want := 0.7*0.5 + 0.3*1.0
	if math.Abs(out[0].Score-want) > 1e-9 {
		t.Errorf("blended score = %f, want %f", out[0].Score, want)
	}
}

func TestRerank_LexicalOverlapPromotes(t *testing.T) {
	r := NewDefault()

	out := r.Rerank("database indexing", []corpus.ScoredChunk{
		scored("vague", "general description of systems", 0.60),
		scored("exact", "database indexing strategies", 0.55),
	})

	if out[0].ID != "exact" {
		t.Errorf("expected lexical match first, got %q", out[0].ID)
	}
}

func TestRerank_PartialOverlap(t *testing.T) {
	r := New(0, 1)

	out := r.Rerank("alpha beta gamma delta", []corpus.ScoredChunk{
		scored("half", "alpha beta something else", 0),
	})

	if math.Abs(out[0].Score-0.5) > 1e-9 {
		t.Errorf("overlap score = %f, want 0.5", out[0].Score)
	}
}

func TestRerank_CaseInsensitive(t *testing.T) {
	r := New(0, 1)

	out := r.Rerank("Vector SEARCH", []corpus.ScoredChunk{
		scored("a", "vector search", 0),
	})

	if math.Abs(out[0].Score-1.0) > 1e-9 {
		t.Errorf("overlap score = %f, want 1.0", out[0].Score)
	}
}

func TestRerank_EmptyQueryKeepsVectorOrder(t *testing.T) {
	r := NewDefault()

	out := r.Rerank("", []corpus.ScoredChunk{
		scored("high", "anything", 0.9),
		scored("low", "anything", 0.1),
	})

	if out[0].ID != "high" || out[1].ID != "low" {
		t.Errorf("unexpected order: %q, %q", out[0].ID, out[1].ID)
	}
}

func TestRerank_StableOnTies(t *testing.T) {
	r := NewDefault()

	out := r.Rerank("zzz", []corpus.ScoredChunk{
		scored("first", "same text", 0.5),
		scored("second", "same text", 0.5),
	})

	if out[0].ID != "first" || out[1].ID != "second" {
		t.Errorf("equal scores should keep input order, got %q, %q",
			out[0].ID, out[1].ID)
	}
}

func TestRerank_DoesNotModifyInput(t *testing.T) {
	r := NewDefault()
	in := []corpus.ScoredChunk{scored("a", "vector search", 0.5)}

	r.Rerank("vector search", in)

	if in[0].Score != 0.5 {
		t.Errorf("input score modified to %f", in[0].Score)
	}
}

func TestRerank_Empty(t *testing.T) {
	if out := NewDefault().Rerank("q", nil); len(out) != 0 {
		t.Errorf("expected empty result, got %d", len(out))
	}
}
