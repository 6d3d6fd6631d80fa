//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package index

import (
	"math"
	"testing"

	"github.com/grag-dev/grag-server/internal/corpus"
)

func TestNew_LengthMismatch(t *testing.T) {
	chunks := []corpus.Chunk{{ID: "a_chunk_0"}}
	vectors := [][]float32{{1, 0}, {0, 1}}

	if _, err := New(chunks, vectors); err == nil {
		t.Error("expected error for mismatched chunk and vector counts")
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0.0},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %f, want %f", got, tt.want)
			}
		})
	}
}

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	chunks := []corpus.Chunk{
		{ID: "doc_chunk_0", DocID: "doc", Text: "alpha"},
		{ID: "doc_chunk_3", DocID: "doc", Text: "beta"},
		{ID: "doc_chunk_6", DocID: "doc", Text: "gamma"},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.7071, 0.7071, 0},
	}
	idx, err := New(chunks, vectors)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return idx
}

func TestSearch_Ordering(t *testing.T) {
	idx := buildTestIndex(t)

	hits, err := idx.Search([]float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].Index != 0 || hits[1].Index != 2 || hits[2].Index != 1 {
		t.Errorf("unexpected ordering: %+v", hits)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("scores not descending at position %d", i)
		}
	}
}

func TestSearch_TieBreakByPosition(t *testing.T) {
	chunks := []corpus.Chunk{
		{ID: "a_chunk_0"}, {ID: "b_chunk_0"}, {ID: "c_chunk_0"},
	}
	vectors := [][]float32{
		{0, 1},
		{1, 0},
		{1, 0},
	}
	idx, err := New(chunks, vectors)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if hits[0].Index != 1 || hits[1].Index != 2 {
		t.Errorf("equal scores should keep corpus order, got %+v", hits)
	}
}

func TestSearch_ClampsK(t *testing.T) {
	idx := buildTestIndex(t)

	hits, err := idx.Search([]float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != idx.Len() {
		t.Errorf("expected %d hits, got %d", idx.Len(), len(hits))
	}
}

func TestSearch_RejectsNonPositiveK(t *testing.T) {
	idx := buildTestIndex(t)

	if _, err := idx.Search([]float32{1, 0, 0}, 0); err == nil {
		t.Error("expected error for k=0")
	}
	if _, err := idx.Search([]float32{1, 0, 0}, -1); err == nil {
		t.Error("expected error for negative k")
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	hits, err := idx.Search([]float32{1}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits from empty index, got %d", len(hits))
	}
}
