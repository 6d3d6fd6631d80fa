//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline provides the staged answer workflow: intent
// classification, retrieval, generation, and finalization.
package pipeline

// Intent labels assigned by the classify stage.
const (
	IntentDefinition = "definition"
	IntentHowTo      = "howto"
	IntentReasoning  = "reasoning"
	IntentGeneral    = "general"
)

// Stage names as they appear in node history.
const (
	NodeClassifyIntent = "classify_intent"
	NodeRetrieve       = "retrieve"
	NodeGenerate       = "generate"
)

// Stage outcome values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultTopK is the retrieval depth used when neither the request
// nor the pipeline configuration sets one.
const DefaultTopK = 4

// Request is a single question submitted to the pipeline.
type Request struct {
	Question  string `json:"question"`
	TopK      int    `json:"top_k,omitempty"`
	UseRerank bool   `json:"use_rerank"`
}

// StageRecord captures one stage attempt. Records are append-only and
// read back only for metrics.
type StageRecord struct {
	Node      string  `json:"node"`
	Status    string  `json:"status"`
	ElapsedMS float64 `json:"elapsed_ms"`
	Error     string  `json:"error,omitempty"`
	Intent    string  `json:"intent,omitempty"`
	DocCount  int     `json:"doc_count,omitempty"`
}

// Citation references a retrieved chunk that backed the answer.
type Citation struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Metrics aggregates per-stage timing and usage for one invocation.
// TotalElapsedMS sums the recorded stages; finalization itself is not
// recorded as a stage.
type Metrics struct {
	TotalElapsedMS float64       `json:"total_elapsed_ms"`
	NodeCount      int           `json:"node_count"`
	RetrievedDocs  int           `json:"retrieved_docs"`
	CacheHit       bool          `json:"cache_hit"`
	EstTokens      int           `json:"est_tokens"`
	NodeHistory    []StageRecord `json:"node_history"`
}

// Result is the completed output of one pipeline invocation.
type Result struct {
	Answer    string     `json:"answer"`
	Intent    string     `json:"intent,omitempty"`
	Citations []Citation `json:"citations"`
	Metrics   Metrics    `json:"metrics"`
}

// EventType discriminates streaming events.
type EventType string

// Streaming event types. A stream emits node events as stages
// complete, text events carrying answer fragments, and exactly one
// terminal done event.
const (
	EventNode EventType = "node"
	EventText EventType = "text"
	EventDone EventType = "done"
)

// Event is one element of a pipeline event stream.
type Event struct {
	Type   EventType    `json:"type"`
	Node   *StageRecord `json:"node,omitempty"`
	Text   string       `json:"text,omitempty"`
	Result *Result      `json:"result,omitempty"`
}
