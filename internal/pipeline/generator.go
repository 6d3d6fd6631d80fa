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
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/grag-dev/grag-server/internal/corpus"
	"github.com/grag-dev/grag-server/internal/llm"
)

// Generator produces an answer from a question and its retrieved
// context. GenerateStream yields answer fragments in order; the
// fragment channel is closed before the error channel delivers.
type Generator interface {
	Generate(ctx context.Context, question, intent string, docs []corpus.ScoredChunk) (string, error)
	GenerateStream(ctx context.Context, question, intent string, docs []corpus.ScoredChunk) (<-chan string, <-chan error)
}

// contextBlock renders retrieved chunks as a numbered reference list
// so answers can cite them with [n] markers.
func contextBlock(docs []corpus.ScoredChunk) string {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, doc.Text)
	}
	return strings.Join(parts, "\n\n")
}

// TemplateGenerator produces a deterministic answer without any model
// call. Streaming is paced to simulate incremental output.
type TemplateGenerator struct {
	delay time.Duration
}

var _ Generator = (*TemplateGenerator)(nil)

// NewTemplateGenerator creates a template generator. delay is the
// pause between streamed fragments; zero disables pacing.
func NewTemplateGenerator(delay time.Duration) *TemplateGenerator {
	return &TemplateGenerator{delay: delay}
}

const templateExcerptLimit = 200

func templateAnswer(question string, docs []corpus.ScoredChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your question %q was answered against %d retrieved document(s).\n\n",
		question, len(docs))

	if len(docs) > 0 {
		excerpt := []rune(contextBlock(docs))
		if len(excerpt) > templateExcerptLimit {
			excerpt = excerpt[:templateExcerptLimit]
		}
		fmt.Fprintf(&b, "Key excerpts:\n%s...\n\n", string(excerpt))
	}

	b.WriteString("(Template answer, no language model was used.)")
	return b.String()
}

// Generate implements Generator.
func (g *TemplateGenerator) Generate(_ context.Context, question, _ string, docs []corpus.ScoredChunk) (string, error) {
	return templateAnswer(question, docs), nil
}

// GenerateStream implements Generator. The template answer is emitted
// one character at a time with the configured delay.
func (g *TemplateGenerator) GenerateStream(ctx context.Context, question, _ string, docs []corpus.ScoredChunk) (<-chan string, <-chan error) {
	textChan := make(chan string)
	errChan := make(chan error, 1)

	answer := templateAnswer(question, docs)

	go func() {
		defer close(textChan)
		defer close(errChan)

		for _, r := range answer {
			select {
			case textChan <- string(r):
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
			if g.delay > 0 {
				select {
				case <-time.After(g.delay):
				case <-ctx.Done():
					errChan <- ctx.Err()
					return
				}
			}
		}
	}()

	return textChan, errChan
}

// ModelGenerator delegates to a completion provider and degrades to a
// template answer when the provider fails, so provider outages never
// surface to the caller.
type ModelGenerator struct {
	provider llm.CompletionProvider
	fallback *TemplateGenerator
	timeout  time.Duration
	logger   *slog.Logger
}

var _ Generator = (*ModelGenerator)(nil)

// NewModelGenerator creates a model-backed generator. timeout bounds
// each provider call before the template fallback takes over.
func NewModelGenerator(provider llm.CompletionProvider, fallback *TemplateGenerator,
	timeout time.Duration, logger *slog.Logger) *ModelGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelGenerator{
		provider: provider,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
	}
}

func (g *ModelGenerator) buildRequest(question string, docs []corpus.ScoredChunk) llm.CompletionRequest {
	return llm.CompletionRequest{
		SystemPrompt: "You are a question answering assistant. Answer using only the " +
			"numbered reference documents and cite them with [1], [2] style markers.",
		Prompt: fmt.Sprintf("Question: %s\n\nReference documents:\n%s",
			question, contextBlock(docs)),
		Temperature: 0.7,
	}
}

// Generate implements Generator.
func (g *ModelGenerator) Generate(ctx context.Context, question, intent string, docs []corpus.ScoredChunk) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.provider.Complete(callCtx, g.buildRequest(question, docs))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		g.logger.Warn("completion provider failed, using template answer",
			"model", g.provider.ModelName(), "error", err)
		return g.fallback.Generate(ctx, question, intent, docs)
	}
	return resp.Content, nil
}

// GenerateStream implements Generator. If the provider fails before
// emitting anything the template answer is streamed instead; a
// failure after partial output keeps the partial answer rather than
// splicing template text into model text.
func (g *ModelGenerator) GenerateStream(ctx context.Context, question, intent string, docs []corpus.ScoredChunk) (<-chan string, <-chan error) {
	textChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(textChan)
		defer close(errChan)

		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		chunks, errs := g.provider.CompleteStream(callCtx, g.buildRequest(question, docs))

		emitted := false
		for chunk := range chunks {
			if chunk.Content == "" {
				continue
			}
			select {
			case textChan <- chunk.Content:
				emitted = true
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}

		err := <-errs
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			errChan <- ctx.Err()
			return
		}
		g.logger.Warn("completion stream failed, using template answer",
			"model", g.provider.ModelName(), "partial", emitted, "error", err)
		if emitted {
			return
		}

		fbChunks, fbErrs := g.fallback.GenerateStream(ctx, question, intent, docs)
		for text := range fbChunks {
			select {
			case textChan <- text:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
		if fbErr := <-fbErrs; fbErr != nil {
			errChan <- fbErr
		}
	}()

	return textChan, errChan
}
