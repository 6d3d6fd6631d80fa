//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline_test

import (
	"context"
	"strings"
	"testing"

	"github.com/grag-dev/grag-server/internal/cache"
	"github.com/grag-dev/grag-server/internal/corpus"
	"github.com/grag-dev/grag-server/internal/embedding"
	"github.com/grag-dev/grag-server/internal/index"
	"github.com/grag-dev/grag-server/internal/pipeline"
	"github.com/grag-dev/grag-server/internal/rerank"
	"github.com/grag-dev/grag-server/internal/retrieval"
)

// buildPipeline assembles the full stack over the built-in sample
// corpus with the deterministic embedder and template generator.
func buildPipeline(t *testing.T, docs []corpus.Document) *pipeline.Pipeline {
	t.Helper()

	chunker, err := corpus.NewChunker(60, 10)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}
	chunks := chunker.ChunkAll(docs)

	embedder := embedding.NewHashEmbedder()
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}

	idx, err := index.New(chunks, vectors)
	if err != nil {
		t.Fatalf("index.New failed: %v", err)
	}
	resultCache, err := cache.New(64)
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}

	return pipeline.New(pipeline.Config{
		Retriever: retrieval.New(embedder, idx, rerank.NewDefault(), resultCache, nil),
		Generator: pipeline.NewTemplateGenerator(0),
	})
}

func TestEndToEnd_SampleCorpus(t *testing.T) {
	p := buildPipeline(t, corpus.SampleDocuments())

	result, err := p.Run(context.Background(), pipeline.Request{
		Question: "What is RAG?",
		TopK:     2,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Intent != pipeline.IntentDefinition {
		t.Errorf("intent = %q, want %q", result.Intent, pipeline.IntentDefinition)
	}
	if len(result.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(result.Citations))
	}
	for i, c := range result.Citations {
		if !strings.HasSuffix(c.Snippet, "...") {
			t.Errorf("citation %d snippet does not end in ellipsis: %q", i, c.Snippet)
		}
	}
	if result.Metrics.RetrievedDocs != 2 {
		t.Errorf("RetrievedDocs = %d, want 2", result.Metrics.RetrievedDocs)
	}
	if result.Metrics.CacheHit {
		t.Error("first run should not be a cache hit")
	}

	// A repeated identical question must hit the shared result cache.
	second, err := p.Run(context.Background(), pipeline.Request{
		Question: "What is RAG?",
		TopK:     2,
	})
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if !second.Metrics.CacheHit {
		t.Error("second identical run should be a cache hit")
	}
	if second.Answer != result.Answer {
		t.Error("cached retrieval changed the answer")
	}
}

func TestEndToEnd_EmptyCorpus(t *testing.T) {
	p := buildPipeline(t, nil)

	result, err := p.Run(context.Background(), pipeline.Request{Question: "What is RAG?"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Answer == "" {
		t.Fatal("expected a non-empty template answer for an empty corpus")
	}
	if !strings.Contains(result.Answer, "0 retrieved document") {
		t.Errorf("answer should reference zero documents: %q", result.Answer)
	}
	if len(result.Citations) != 0 {
		t.Errorf("expected no citations, got %d", len(result.Citations))
	}
	if result.Metrics.RetrievedDocs != 0 {
		t.Errorf("RetrievedDocs = %d, want 0", result.Metrics.RetrievedDocs)
	}
}

func TestEndToEnd_Streaming(t *testing.T) {
	p := buildPipeline(t, corpus.SampleDocuments())

	events, errs := p.RunStream(context.Background(), pipeline.Request{
		Question:  "How does retrieval work?",
		TopK:      2,
		UseRerank: true,
	})

	var (
		text strings.Builder
		done *pipeline.Result
	)
	for ev := range events {
		switch ev.Type {
		case pipeline.EventText:
			text.WriteString(ev.Text)
		case pipeline.EventDone:
			done = ev.Result
		}
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	if done == nil {
		t.Fatal("missing done event")
	}
	if text.String() != done.Answer {
		t.Error("concatenated text events do not equal the final answer")
	}
	if done.Intent != pipeline.IntentHowTo {
		t.Errorf("intent = %q, want %q", done.Intent, pipeline.IntentHowTo)
	}
}
