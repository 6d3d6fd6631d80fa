//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/grag-dev/grag-server/internal/corpus"
)

// mockRetriever returns canned results, or an error, and counts
// calls.
type mockRetriever struct {
	results  []corpus.ScoredChunk
	cacheHit bool
	err      error
	calls    int
	lastTopK int
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, topK int, _ bool) ([]corpus.ScoredChunk, bool, error) {
	m.calls++
	m.lastTopK = topK
	if m.err != nil {
		return nil, false, m.err
	}
	results := m.results
	if len(results) > topK {
		results = results[:topK]
	}
	return results, m.cacheHit, nil
}

// mockGenerator fails a configurable number of attempts before
// succeeding.
type mockGenerator struct {
	answer    string
	failCount int
	calls     int
}

func (m *mockGenerator) Generate(_ context.Context, _, _ string, _ []corpus.ScoredChunk) (string, error) {
	m.calls++
	if m.calls <= m.failCount {
		return "", errors.New("generation failed")
	}
	return m.answer, nil
}

func (m *mockGenerator) GenerateStream(ctx context.Context, question, intent string, docs []corpus.ScoredChunk) (<-chan string, <-chan error) {
	textChan := make(chan string)
	errChan := make(chan error, 1)
	go func() {
		defer close(textChan)
		defer close(errChan)
		m.calls++
		if m.calls <= m.failCount {
			errChan <- errors.New("generation failed")
			return
		}
		for _, word := range strings.SplitAfter(m.answer, " ") {
			select {
			case textChan <- word:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()
	return textChan, errChan
}

func testChunks(n int) []corpus.ScoredChunk {
	chunks := make([]corpus.ScoredChunk, n)
	for i := range chunks {
		chunks[i] = corpus.ScoredChunk{
			Chunk: corpus.Chunk{
				ID:    "doc_chunk_0",
				DocID: "doc",
				Title: "Doc",
				Text:  strings.Repeat("retrieval context text ", 20),
			},
			Score: 0.9,
		}
	}
	return chunks
}

func newTestPipeline(retriever Retriever, generator Generator) *Pipeline {
	return New(Config{Retriever: retriever, Generator: generator})
}

func TestRun_StageOrdering(t *testing.T) {
	p := newTestPipeline(
		&mockRetriever{results: testChunks(2)},
		&mockGenerator{answer: "the answer"},
	)

	result, err := p.Run(context.Background(), Request{Question: "What is RAG?", TopK: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{NodeClassifyIntent, NodeRetrieve, NodeGenerate}
	history := result.Metrics.NodeHistory
	if len(history) != len(want) {
		t.Fatalf("expected %d stage records, got %d", len(want), len(history))
	}
	for i, rec := range history {
		if rec.Node != want[i] {
			t.Errorf("stage %d = %q, want %q", i, rec.Node, want[i])
		}
		if rec.Status != StatusSuccess {
			t.Errorf("stage %q status = %q", rec.Node, rec.Status)
		}
	}
	if result.Metrics.NodeCount != 3 {
		t.Errorf("NodeCount = %d, want 3", result.Metrics.NodeCount)
	}
}

func TestRun_IntentClassification(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"What is RAG?", IntentDefinition},
		{"Explain vector search", IntentDefinition},
		{"How does chunking work?", IntentHowTo},
		{"Why use overlapping chunks?", IntentReasoning},
		{"the reason for caching", IntentReasoning},
		{"tell me about embeddings", IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			p := newTestPipeline(
				&mockRetriever{results: testChunks(1)},
				&mockGenerator{answer: "a"},
			)
			result, err := p.Run(context.Background(), Request{Question: tt.question})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if result.Intent != tt.want {
				t.Errorf("intent = %q, want %q", result.Intent, tt.want)
			}
		})
	}
}

func TestRun_InvalidInput(t *testing.T) {
	p := newTestPipeline(&mockRetriever{}, &mockGenerator{answer: "a"})

	if _, err := p.Run(context.Background(), Request{Question: "   "}); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}
	if _, err := p.Run(context.Background(), Request{Question: "q", TopK: -1}); !errors.Is(err, ErrInvalidTopK) {
		t.Errorf("expected ErrInvalidTopK, got %v", err)
	}
}

func TestRun_DefaultTopK(t *testing.T) {
	retriever := &mockRetriever{results: testChunks(8)}
	p := newTestPipeline(retriever, &mockGenerator{answer: "a"})

	result, err := p.Run(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Metrics.RetrievedDocs != DefaultTopK {
		t.Errorf("RetrievedDocs = %d, want %d", result.Metrics.RetrievedDocs, DefaultTopK)
	}
}

func TestRun_ConfiguredDefaultTopK(t *testing.T) {
	retriever := &mockRetriever{results: testChunks(8)}
	p := New(Config{
		Retriever:   retriever,
		Generator:   &mockGenerator{answer: "a"},
		DefaultTopK: 6,
	})

	if _, err := p.Run(context.Background(), Request{Question: "q"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if retriever.lastTopK != 6 {
		t.Errorf("retriever topK = %d, want configured default 6", retriever.lastTopK)
	}

	// An explicit request value still wins.
	if _, err := p.Run(context.Background(), Request{Question: "q", TopK: 3}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if retriever.lastTopK != 3 {
		t.Errorf("retriever topK = %d, want request value 3", retriever.lastTopK)
	}
}

func TestRun_RetrievalFailureDegrades(t *testing.T) {
	p := newTestPipeline(
		&mockRetriever{err: errors.New("index unavailable")},
		&mockGenerator{answer: "fallback answer"},
	)

	result, err := p.Run(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Run should absorb retrieval failures, got %v", err)
	}
	if result.Answer == "" {
		t.Error("expected an answer despite retrieval failure")
	}
	if len(result.Citations) != 0 {
		t.Errorf("expected no citations, got %d", len(result.Citations))
	}

	var retrieveRec *StageRecord
	for i := range result.Metrics.NodeHistory {
		if result.Metrics.NodeHistory[i].Node == NodeRetrieve {
			retrieveRec = &result.Metrics.NodeHistory[i]
		}
	}
	if retrieveRec == nil || retrieveRec.Status != StatusError {
		t.Error("retrieve stage should be recorded as an error")
	}
}

func TestRun_GenerateRetriesOnce(t *testing.T) {
	gen := &mockGenerator{answer: "recovered", failCount: 1}
	p := newTestPipeline(&mockRetriever{results: testChunks(1)}, gen)

	result, err := p.Run(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Answer != "recovered" {
		t.Errorf("answer = %q, want %q", result.Answer, "recovered")
	}
	if gen.calls != 2 {
		t.Errorf("expected 2 generate attempts, got %d", gen.calls)
	}

	var generates []StageRecord
	for _, rec := range result.Metrics.NodeHistory {
		if rec.Node == NodeGenerate {
			generates = append(generates, rec)
		}
	}
	if len(generates) != 2 {
		t.Fatalf("expected 2 generate records, got %d", len(generates))
	}
	if generates[0].Status != StatusError || generates[1].Status != StatusSuccess {
		t.Errorf("unexpected generate statuses: %q, %q",
			generates[0].Status, generates[1].Status)
	}
}

func TestRun_GenerateStopsAfterSecondFailure(t *testing.T) {
	gen := &mockGenerator{answer: "never", failCount: 5}
	p := newTestPipeline(&mockRetriever{results: testChunks(1)}, gen)

	result, err := p.Run(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Run should absorb generation failures, got %v", err)
	}
	if gen.calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", gen.calls)
	}
	if len(result.Citations) != 1 {
		t.Errorf("citations should still be derived, got %d", len(result.Citations))
	}
}

func TestRun_CitationsAndMetrics(t *testing.T) {
	p := newTestPipeline(
		&mockRetriever{results: testChunks(2), cacheHit: true},
		&mockGenerator{answer: "one two three four"},
	)

	result, err := p.Run(context.Background(), Request{Question: "What is RAG?", TopK: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(result.Citations))
	}
	for i, c := range result.Citations {
		if !strings.HasSuffix(c.Snippet, "...") {
			t.Errorf("citation %d snippet does not end in ellipsis: %q", i, c.Snippet)
		}
		if len([]rune(c.Snippet)) > 153 {
			t.Errorf("citation %d snippet too long: %d runes", i, len([]rune(c.Snippet)))
		}
	}

	m := result.Metrics
	if m.RetrievedDocs != 2 {
		t.Errorf("RetrievedDocs = %d, want 2", m.RetrievedDocs)
	}
	if !m.CacheHit {
		t.Error("CacheHit should reflect the retriever's report")
	}
	// Four words at the default 1.3 multiplier truncate to 5.
	if m.EstTokens != 5 {
		t.Errorf("EstTokens = %d, want 5", m.EstTokens)
	}

	var sum float64
	for _, rec := range m.NodeHistory {
		sum += rec.ElapsedMS
	}
	if m.TotalElapsedMS != sum {
		t.Errorf("TotalElapsedMS = %f, want sum of stages %f", m.TotalElapsedMS, sum)
	}
}

func TestRunStream_TextEventsConcatenateToAnswer(t *testing.T) {
	p := newTestPipeline(
		&mockRetriever{results: testChunks(2)},
		&mockGenerator{answer: "streamed answer text"},
	)

	events, errs := p.RunStream(context.Background(), Request{Question: "What is RAG?", TopK: 2})

	var (
		text     strings.Builder
		nodes    []string
		done     *Result
		lastType EventType
	)
	for ev := range events {
		lastType = ev.Type
		switch ev.Type {
		case EventNode:
			nodes = append(nodes, ev.Node.Node)
		case EventText:
			text.WriteString(ev.Text)
		case EventDone:
			if done != nil {
				t.Fatal("received more than one done event")
			}
			done = ev.Result
		}
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	if lastType != EventDone || done == nil {
		t.Fatal("stream must end with exactly one done event")
	}
	if text.String() != done.Answer {
		t.Errorf("concatenated text %q != done answer %q", text.String(), done.Answer)
	}
	wantNodes := []string{NodeClassifyIntent, NodeRetrieve}
	if len(nodes) != len(wantNodes) {
		t.Fatalf("expected %d node events, got %d", len(wantNodes), len(nodes))
	}
	for i, n := range nodes {
		if n != wantNodes[i] {
			t.Errorf("node event %d = %q, want %q", i, n, wantNodes[i])
		}
	}
}

func TestRunStream_InvalidRequest(t *testing.T) {
	p := newTestPipeline(&mockRetriever{}, &mockGenerator{answer: "a"})

	events, errs := p.RunStream(context.Background(), Request{Question: ""})
	for range events {
		t.Error("no events expected for invalid request")
	}
	if err := <-errs; !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}
}

func TestRunStream_ConsumerCancellation(t *testing.T) {
	p := newTestPipeline(
		&mockRetriever{results: testChunks(1)},
		&mockGenerator{answer: strings.Repeat("word ", 200)},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, errs := p.RunStream(ctx, Request{Question: "q"})

	seen := 0
	for range events {
		seen++
		if seen == 3 {
			cancel()
			break
		}
	}
	// With the consumer gone the producer must stop and report the
	// cancellation instead of emitting a done event.
	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRun_EmptyCorpusTemplateAnswer(t *testing.T) {
	p := newTestPipeline(
		&mockRetriever{results: nil},
		NewTemplateGenerator(0),
	)

	result, err := p.Run(context.Background(), Request{Question: "What is RAG?"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Answer == "" {
		t.Fatal("expected a non-empty template answer for an empty corpus")
	}
	if !strings.Contains(result.Answer, "0 retrieved document") {
		t.Errorf("template answer should reference zero documents: %q", result.Answer)
	}
	if len(result.Citations) != 0 {
		t.Errorf("expected no citations, got %d", len(result.Citations))
	}
}
