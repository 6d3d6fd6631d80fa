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
	"log/slog"
	"strings"
	"time"

	"github.com/grag-dev/grag-server/internal/corpus"
)

// Request validation errors.
var (
	ErrEmptyQuestion = errors.New("question must not be empty")
	ErrInvalidTopK   = errors.New("top_k must be positive")
)

// maxGenerateRetries bounds how often a failed generate stage is
// re-attempted.
const maxGenerateRetries = 1

// citationSnippetLimit is the maximum snippet length in characters
// before the ellipsis marker.
const citationSnippetLimit = 150

// Retriever supplies ranked context for a question. The bool reports
// whether the results came from a cache.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, useRerank bool) ([]corpus.ScoredChunk, bool, error)
}

// Pipeline runs the classify, retrieve, generate, finalize stages
// over one request at a time. A Pipeline is safe for concurrent use;
// each invocation owns its own state.
type Pipeline struct {
	retriever   Retriever
	generator   Generator
	estimator   TokenEstimator
	defaultTopK int
	logger      *slog.Logger
}

// Config contains the collaborators for creating a pipeline.
type Config struct {
	Retriever Retriever
	Generator Generator
	Estimator TokenEstimator
	// DefaultTopK is the retrieval depth for requests that leave
	// top_k unset. Zero falls back to DefaultTopK.
	DefaultTopK int
	Logger      *slog.Logger
}

// New creates an answer pipeline.
func New(cfg Config) *Pipeline {
	estimator := cfg.Estimator
	if estimator == nil {
		estimator = WordCountEstimator{Multiplier: DefaultTokenMultiplier}
	}
	defaultTopK := cfg.DefaultTopK
	if defaultTopK < 1 {
		defaultTopK = DefaultTopK
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		retriever:   cfg.Retriever,
		generator:   cfg.Generator,
		estimator:   estimator,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// state is the mutable per-invocation workspace. It is owned by
// exactly one Run or RunStream call and never shared.
type state struct {
	question   string
	topK       int
	useRerank  bool
	intent     string
	retrieved  []corpus.ScoredChunk
	cacheHit   bool
	answer     string
	citations  []Citation
	history    []StageRecord
	retryCount int
}

func newState(req Request, defaultTopK int) (*state, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}
	topK := req.TopK
	if topK == 0 {
		topK = defaultTopK
	}
	if topK < 0 {
		return nil, ErrInvalidTopK
	}
	return &state{
		question:  req.Question,
		topK:      topK,
		useRerank: req.UseRerank,
	}, nil
}

func (st *state) result() *Result {
	return &Result{
		Answer:    st.answer,
		Intent:    st.intent,
		Citations: st.citations,
	}
}

// Run executes all stages and returns the completed result. Internal
// stage failures are absorbed and reported through the node history;
// only invalid input fails the call.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	st, err := newState(req, p.defaultTopK)
	if err != nil {
		return nil, err
	}

	p.classify(st)
	p.retrieve(ctx, st)
	p.generate(ctx, st, nil)

	result := st.result()
	result.Metrics = p.finalize(st)
	return result, nil
}

// RunStream executes all stages while emitting events: a node event
// after classify and retrieve, a text event per answer fragment, and
// a terminal done event whose answer equals the concatenated text
// events. The event channel closes after done or when ctx is
// cancelled.
func (p *Pipeline) RunStream(ctx context.Context, req Request) (<-chan Event, <-chan error) {
	events := make(chan Event)
	errChan := make(chan error, 1)

	st, err := newState(req, p.defaultTopK)
	if err != nil {
		close(events)
		errChan <- err
		close(errChan)
		return events, errChan
	}

	go func() {
		defer close(events)
		defer close(errChan)

		send := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				errChan <- ctx.Err()
				return false
			}
		}
		lastNode := func() Event {
			rec := st.history[len(st.history)-1]
			return Event{Type: EventNode, Node: &rec}
		}

		p.classify(st)
		if !send(lastNode()) {
			return
		}

		p.retrieve(ctx, st)
		if !send(lastNode()) {
			return
		}

		aborted := false
		p.generate(ctx, st, func(text string) error {
			if !send(Event{Type: EventText, Text: text}) {
				aborted = true
				return ctx.Err()
			}
			return nil
		})
		if aborted {
			return
		}

		result := st.result()
		result.Metrics = p.finalize(st)
		send(Event{Type: EventDone, Result: result})
	}()

	return events, errChan
}

// classify tags the question with an intent from keyword matches. It
// never blocks the pipeline.
func (p *Pipeline) classify(st *state) {
	start := time.Now()

	q := strings.ToLower(st.question)
	switch {
	case strings.Contains(q, "what") || strings.Contains(q, "explain"):
		st.intent = IntentDefinition
	case strings.Contains(q, "how"):
		st.intent = IntentHowTo
	case strings.Contains(q, "why") || strings.Contains(q, "reason"):
		st.intent = IntentReasoning
	default:
		st.intent = IntentGeneral
	}

	st.history = append(st.history, StageRecord{
		Node:      NodeClassifyIntent,
		Status:    StatusSuccess,
		ElapsedMS: elapsedMS(start),
		Intent:    st.intent,
	})
}

// retrieve fills the state's context set. A failure degrades to an
// empty context instead of aborting the pipeline.
func (p *Pipeline) retrieve(ctx context.Context, st *state) {
	start := time.Now()

	docs, cacheHit, err := p.retriever.Retrieve(ctx, st.question, st.topK, st.useRerank)
	if err != nil {
		p.logger.Warn("retrieval failed, continuing without context", "error", err)
		st.history = append(st.history, StageRecord{
			Node:      NodeRetrieve,
			Status:    StatusError,
			ElapsedMS: elapsedMS(start),
			Error:     err.Error(),
		})
		return
	}

	st.retrieved = docs
	st.cacheHit = cacheHit
	st.history = append(st.history, StageRecord{
		Node:      NodeRetrieve,
		Status:    StatusSuccess,
		ElapsedMS: elapsedMS(start),
		DocCount:  len(docs),
	})
}

// generate produces the answer, retrying a failed attempt once, then
// derives citations regardless of the outcome. When emit is non-nil
// every answer fragment is passed to it as it is produced.
func (p *Pipeline) generate(ctx context.Context, st *state, emit func(string) error) {
	for {
		start := time.Now()
		err := p.generateOnce(ctx, st, emit)
		if err == nil {
			st.history = append(st.history, StageRecord{
				Node:      NodeGenerate,
				Status:    StatusSuccess,
				ElapsedMS: elapsedMS(start),
			})
			break
		}

		st.history = append(st.history, StageRecord{
			Node:      NodeGenerate,
			Status:    StatusError,
			ElapsedMS: elapsedMS(start),
			Error:     err.Error(),
		})
		if ctx.Err() != nil || st.retryCount >= maxGenerateRetries {
			break
		}
		st.retryCount++
		p.logger.Warn("generate stage failed, retrying",
			"attempt", st.retryCount+1, "error", err)
	}

	st.citations = buildCitations(st.retrieved)
}

func (p *Pipeline) generateOnce(ctx context.Context, st *state, emit func(string) error) error {
	if emit == nil {
		answer, err := p.generator.Generate(ctx, st.question, st.intent, st.retrieved)
		if err != nil {
			return err
		}
		st.answer = answer
		return nil
	}

	fragments, errs := p.generator.GenerateStream(ctx, st.question, st.intent, st.retrieved)
	for fragment := range fragments {
		st.answer += fragment
		if err := emit(fragment); err != nil {
			return err
		}
	}
	return <-errs
}

// finalize aggregates stage records into the invocation's metrics.
func (p *Pipeline) finalize(st *state) Metrics {
	var total float64
	for _, rec := range st.history {
		total += rec.ElapsedMS
	}
	return Metrics{
		TotalElapsedMS: total,
		NodeCount:      len(st.history),
		RetrievedDocs:  len(st.retrieved),
		CacheHit:       st.cacheHit,
		EstTokens:      p.estimator.Estimate(st.answer),
		NodeHistory:    st.history,
	}
}

func buildCitations(docs []corpus.ScoredChunk) []Citation {
	citations := make([]Citation, len(docs))
	for i, doc := range docs {
		snippet := []rune(doc.Text)
		if len(snippet) > citationSnippetLimit {
			snippet = snippet[:citationSnippetLimit]
		}
		citations[i] = Citation{
			ID:      doc.ID,
			Title:   doc.Title,
			Snippet: string(snippet) + "...",
			Score:   doc.Score,
		}
	}
	return citations
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
