//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default configuration should validate, got: %v", err)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grag-server.yaml")

	content := `
server:
  port: 9090
corpus:
  data_dir: /srv/docs
  chunk_size: 200
  chunk_overlap: 20
retrieval:
  top_k: 6
  cache_size: 50
generation:
  mode: template
  stream_delay_ms: 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Corpus.DataDir != "/srv/docs" {
		t.Errorf("expected data dir /srv/docs, got %s", cfg.Corpus.DataDir)
	}
	if cfg.Corpus.ChunkSize != 200 || cfg.Corpus.ChunkOverlap != 20 {
		t.Errorf("unexpected chunking params: %d/%d",
			cfg.Corpus.ChunkSize, cfg.Corpus.ChunkOverlap)
	}
	if cfg.Retrieval.TopK != 6 {
		t.Errorf("expected top_k 6, got %d", cfg.Retrieval.TopK)
	}

	// Untouched sections keep their defaults.
	if cfg.Auth.Mode != AuthModeDemo {
		t.Errorf("expected default auth mode, got %s", cfg.Auth.Mode)
	}
	if cfg.Embedding.Mode != EmbeddingModeHash {
		t.Errorf("expected default embedding mode, got %s", cfg.Embedding.Mode)
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config path")
	}
}

func TestValidate_ChunkOverlap(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid", 500, 50, false},
		{"zero overlap", 100, 0, false},
		{"overlap equals size", 100, 100, true},
		{"overlap exceeds size", 100, 150, true},
		{"negative overlap", 100, -1, true},
		{"zero size", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Corpus.ChunkSize = tt.size
			cfg.Corpus.ChunkOverlap = tt.overlap

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	cfg.Retrieval.TopK = -1
	cfg.Embedding.Mode = "banana"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}

	msg := err.Error()
	for _, field := range []string{"server.port", "retrieval.top_k", "embedding.mode"} {
		if !strings.Contains(msg, field) {
			t.Errorf("expected error for %s in %q", field, msg)
		}
	}
}

func TestValidate_ProviderModes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Embedding.Mode = EmbeddingModeProvider
	cfg.Embedding.Provider = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for provider mode without provider")
	}

	cfg = DefaultConfig()
	cfg.Generation.Mode = GenerationModeModel
	cfg.Generation.Provider = "ollama"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error for model generation with provider: %v", err)
	}
}

func TestSampleFallbackEnabled(t *testing.T) {
	cfg := CorpusConfig{}
	if !cfg.SampleFallbackEnabled() {
		t.Error("sample fallback should default to true")
	}

	disabled := false
	cfg.SampleFallback = &disabled
	if cfg.SampleFallbackEnabled() {
		t.Error("sample fallback should honor explicit false")
	}
}
