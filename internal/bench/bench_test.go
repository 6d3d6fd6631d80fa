//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package bench

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/grag-dev/grag-server/internal/pipeline"
)

// mockPipeline reports a cache hit on every run after the first.
type mockPipeline struct {
	calls     int
	estTokens int
	err       error
}

func (m *mockPipeline) Run(_ context.Context, _ pipeline.Request) (*pipeline.Result, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &pipeline.Result{
		Answer: "answer",
		Metrics: pipeline.Metrics{
			CacheHit:  m.calls > 1,
			EstTokens: m.estTokens,
		},
	}, nil
}

func TestRun_Aggregates(t *testing.T) {
	mock := &mockPipeline{estTokens: 100}
	runner := New(mock, 0.002, nil)

	report, err := runner.Run(context.Background(), "What is RAG?", 10, 4, true)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Runs != 10 || mock.calls != 10 {
		t.Errorf("expected 10 runs, got report=%d calls=%d", report.Runs, mock.calls)
	}
	if report.CacheHits != 9 {
		t.Errorf("CacheHits = %d, want 9", report.CacheHits)
	}
	if math.Abs(report.CacheHitRate-0.9) > 1e-9 {
		t.Errorf("CacheHitRate = %f, want 0.9", report.CacheHitRate)
	}
	if report.TotalTokens != 1000 {
		t.Errorf("TotalTokens = %d, want 1000", report.TotalTokens)
	}
	// 1000 tokens at 0.002 per thousand.
	if math.Abs(report.EstCostUSD-0.002) > 1e-9 {
		t.Errorf("EstCostUSD = %f, want 0.002", report.EstCostUSD)
	}

	if report.P50MS < 0 || report.P95MS < report.P50MS {
		t.Errorf("implausible percentiles: p50=%f p95=%f", report.P50MS, report.P95MS)
	}
	if report.AvgMS < 0 {
		t.Errorf("implausible average: %f", report.AvgMS)
	}
}

func TestRun_InvalidRuns(t *testing.T) {
	runner := New(&mockPipeline{}, 0.002, nil)

	if _, err := runner.Run(context.Background(), "q", 0, 4, true); err == nil {
		t.Error("expected error for zero runs")
	}
}

func TestRun_PipelineError(t *testing.T) {
	runner := New(&mockPipeline{err: errors.New("boom")}, 0.002, nil)

	if _, err := runner.Run(context.Background(), "q", 3, 4, true); err == nil {
		t.Error("expected pipeline error to surface")
	}
}

func TestRun_SingleRun(t *testing.T) {
	runner := New(&mockPipeline{estTokens: 10}, 0, nil)

	report, err := runner.Run(context.Background(), "q", 1, 4, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.P50MS != report.P95MS {
		t.Errorf("single run percentiles should match: p50=%f p95=%f",
			report.P50MS, report.P95MS)
	}
	if report.CacheHits != 0 {
		t.Errorf("CacheHits = %d, want 0", report.CacheHits)
	}
}
