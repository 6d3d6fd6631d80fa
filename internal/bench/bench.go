//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package bench runs repeated pipeline invocations and aggregates
// latency percentiles and a cost estimate.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/grag-dev/grag-server/internal/pipeline"
)

// DefaultCostPer1KTokens is the assumed price per thousand estimated
// tokens when none is configured.
const DefaultCostPer1KTokens = 0.002

// Pipeline is the subset of the answer pipeline the runner needs.
type Pipeline interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Report summarizes one benchmark run.
type Report struct {
	Question     string  `json:"question"`
	Runs         int     `json:"runs"`
	P50MS        float64 `json:"p50_ms"`
	P95MS        float64 `json:"p95_ms"`
	AvgMS        float64 `json:"avg_ms"`
	CacheHits    int     `json:"cache_hits"`
	CacheHitRate float64 `json:"cache_hit_rate"`
	TotalTokens  int     `json:"total_est_tokens"`
	EstCostUSD   float64 `json:"est_cost_usd"`
}

// Runner benchmarks a pipeline.
type Runner struct {
	pipeline        Pipeline
	costPer1KTokens float64
	logger          *slog.Logger
}

// New creates a benchmark runner. A non-positive cost falls back to
// DefaultCostPer1KTokens.
func New(p Pipeline, costPer1KTokens float64, logger *slog.Logger) *Runner {
	if costPer1KTokens <= 0 {
		costPer1KTokens = DefaultCostPer1KTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		pipeline:        p,
		costPer1KTokens: costPer1KTokens,
		logger:          logger,
	}
}

// Run invokes the pipeline runs times with the same question and
// aggregates wall-clock latencies and token usage.
func (r *Runner) Run(ctx context.Context, question string, runs, topK int, useRerank bool) (*Report, error) {
	if runs < 1 {
		return nil, fmt.Errorf("runs must be positive, got %d", runs)
	}

	req := pipeline.Request{Question: question, TopK: topK, UseRerank: useRerank}

	times := make([]float64, 0, runs)
	cacheHits := 0
	totalTokens := 0

	for i := 0; i < runs; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		result, err := r.pipeline.Run(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("benchmark run %d: %w", i+1, err)
		}
		times = append(times, float64(time.Since(start).Microseconds())/1000.0)

		if result.Metrics.CacheHit {
			cacheHits++
		}
		totalTokens += result.Metrics.EstTokens
	}

	sort.Float64s(times)

	var sum float64
	for _, t := range times {
		sum += t
	}

	p95Index := int(float64(len(times)) * 0.95)
	if p95Index >= len(times) {
		p95Index = len(times) - 1
	}

	report := &Report{
		Question:     question,
		Runs:         runs,
		P50MS:        times[len(times)/2],
		P95MS:        times[p95Index],
		AvgMS:        sum / float64(len(times)),
		CacheHits:    cacheHits,
		CacheHitRate: float64(cacheHits) / float64(runs),
		TotalTokens:  totalTokens,
		EstCostUSD:   float64(totalTokens) / 1000.0 * r.costPer1KTokens,
	}

	r.logger.Info("benchmark complete",
		"runs", runs, "p50_ms", report.P50MS, "p95_ms", report.P95MS,
		"cache_hit_rate", report.CacheHitRate)
	return report, nil
}
