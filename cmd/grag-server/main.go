//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grag-dev/grag-server/internal/auth"
	"github.com/grag-dev/grag-server/internal/bench"
	"github.com/grag-dev/grag-server/internal/cache"
	"github.com/grag-dev/grag-server/internal/config"
	"github.com/grag-dev/grag-server/internal/corpus"
	"github.com/grag-dev/grag-server/internal/embedding"
	"github.com/grag-dev/grag-server/internal/history"
	"github.com/grag-dev/grag-server/internal/index"
	"github.com/grag-dev/grag-server/internal/llm/factory"
	"github.com/grag-dev/grag-server/internal/pipeline"
	"github.com/grag-dev/grag-server/internal/rerank"
	"github.com/grag-dev/grag-server/internal/retrieval"
	"github.com/grag-dev/grag-server/internal/server"
)

// Version information - set via ldflags during build
var (
	version   = "1.0.0"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help message")
		showOpenAPI = flag.Bool("openapi", false, "Output OpenAPI specification and exit")
		configPath  = flag.String("config", "", "Path to configuration file")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `G-RAG Server - Retrieval-Augmented Question Answering

Usage:
    grag-server [options]

Options:
    -config string
        Path to configuration file. If not specified, searches:
        1. /etc/grag/grag-server.yaml
        2. grag-server.yaml (in binary directory)

    -openapi
        Output OpenAPI v3 specification as JSON and exit

    -version
        Show version information and exit

    -help
        Show this help message and exit
`)
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("G-RAG Server\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Build Time: %s\n", buildTime)
		fmt.Printf("  Git Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	if *showOpenAPI {
		spec := server.BuildOpenAPISpec()
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(spec); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode OpenAPI spec: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Set up logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Run the server
	if err := run(*configPath, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancelStartup()

	// Load and chunk the corpus
	docs, err := loadCorpus(startupCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	chunker, err := corpus.NewChunker(cfg.Corpus.ChunkSize, cfg.Corpus.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("invalid chunking configuration: %w", err)
	}
	chunks := chunker.ChunkAll(docs)

	logger.Info("corpus loaded",
		"documents", len(docs),
		"chunks", len(chunks))

	// Build the retrieval engine
	embedder, err := buildEmbedder(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.EmbedBatch(startupCtx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed corpus: %w", err)
	}

	idx, err := index.New(chunks, vectors)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	resultCache, err := cache.New(cfg.Retrieval.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to create result cache: %w", err)
	}

	retriever := retrieval.New(
		embedder,
		idx,
		rerank.New(cfg.Retrieval.VectorWeight, cfg.Retrieval.LexicalWeight),
		resultCache,
		logger,
	)

	// Build the answer pipeline
	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	p := pipeline.New(pipeline.Config{
		Retriever:   retriever,
		Generator:   generator,
		DefaultTopK: cfg.Retrieval.TopK,
		Logger:      logger,
	})

	// Optional history store
	var store server.HistoryStore
	if cfg.History.Enabled {
		sqlStore, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer func() {
			if err := sqlStore.Close(); err != nil {
				logger.Error("failed to close history store", "error", err)
			}
		}()
		store = sqlStore
	}

	runner := bench.New(p, cfg.Bench.CostPer1KTokens, logger)
	authenticator := auth.New(cfg.Auth)

	// Create and start server
	srv := server.New(cfg, p, runner, store, authenticator, logger)

	// Handle graceful shutdown
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return err
	case sig := <-shutdownCh:
		logger.Info("received shutdown signal", "signal", sig)

		// Give 30 seconds for graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(ctx)
	}
}

// loadCorpus tries the configured sources in order: data directory,
// PostgreSQL, then the built-in samples unless the fallback is
// disabled.
func loadCorpus(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]corpus.Document, error) {
	var sources []corpus.Source
	if cfg.Corpus.DataDir != "" {
		sources = append(sources, corpus.DirSource{Dir: cfg.Corpus.DataDir})
	}
	if cfg.Corpus.Database != nil {
		sources = append(sources, corpus.PostgresSource{Config: *cfg.Corpus.Database})
	}

	for _, source := range sources {
		docs, err := source.Load(ctx)
		if err != nil {
			return nil, err
		}
		if len(docs) > 0 {
			return docs, nil
		}
	}

	if cfg.Corpus.SampleFallbackEnabled() {
		logger.Info("no corpus documents found, using built-in samples")
		return corpus.SampleSource{}.Load(ctx)
	}
	return nil, nil
}

func buildEmbedder(cfg *config.Config, logger *slog.Logger) (embedding.Embedder, error) {
	if cfg.Embedding.Mode != config.EmbeddingModeProvider {
		return embedding.NewHashEmbedder(), nil
	}

	apiKey, err := config.LoadAPIKey(cfg.Embedding.Provider, cfg.Embedding.APIKeyFile)
	if err != nil {
		return nil, err
	}
	provider, err := factory.NewEmbeddingProvider(
		cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.BaseURL, apiKey)
	if err != nil {
		return nil, err
	}
	return embedding.NewProviderEmbedder(provider, logger), nil
}

func buildGenerator(cfg *config.Config, logger *slog.Logger) (pipeline.Generator, error) {
	template := pipeline.NewTemplateGenerator(
		time.Duration(cfg.Generation.StreamDelayMS) * time.Millisecond)

	if cfg.Generation.Mode != config.GenerationModeModel {
		return template, nil
	}

	apiKey, err := config.LoadAPIKey(cfg.Generation.Provider, cfg.Generation.APIKeyFile)
	if err != nil {
		return nil, err
	}
	provider, err := factory.NewCompletionProvider(
		cfg.Generation.Provider, cfg.Generation.Model, cfg.Generation.BaseURL, apiKey)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Generation.TimeoutSeconds) * time.Second
	return pipeline.NewModelGenerator(provider, template, timeout, logger), nil
}
