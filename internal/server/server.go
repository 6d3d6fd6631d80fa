//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package server provides the HTTP server for the question answering
// API.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/grag-dev/grag-server/internal/auth"
	"github.com/grag-dev/grag-server/internal/bench"
	"github.com/grag-dev/grag-server/internal/config"
	"github.com/grag-dev/grag-server/internal/history"
	"github.com/grag-dev/grag-server/internal/pipeline"
)

// AnswerPipeline defines the interface for answering questions.
type AnswerPipeline interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	RunStream(ctx context.Context, req pipeline.Request) (<-chan pipeline.Event, <-chan error)
}

// BenchRunner defines the interface for running benchmarks.
type BenchRunner interface {
	Run(ctx context.Context, question string, runs, topK int, useRerank bool) (*bench.Report, error)
}

// HistoryStore defines the interface for chat history and audit
// persistence. It may be nil when history is disabled.
type HistoryStore interface {
	CreateSession(ctx context.Context, userID string) (*history.Session, error)
	AddMessage(ctx context.Context, sessionID int64, role, content string, citations json.RawMessage) (*history.Message, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]history.Session, error)
	GetSession(ctx context.Context, sessionID int64) (*history.Session, []history.Message, error)
	Audit(ctx context.Context, userID, action string, details json.RawMessage) error
	ListAudit(ctx context.Context, limit int) ([]history.AuditEntry, error)
}

// Server is the HTTP server for the question answering API.
type Server struct {
	config   *config.Config
	pipeline AnswerPipeline
	bench    BenchRunner
	history  HistoryStore
	auth     *auth.Authenticator
	logger   *slog.Logger
	server   *http.Server
	mux      *http.ServeMux
}

// New creates a new HTTP server.
func New(cfg *config.Config, p AnswerPipeline, b BenchRunner, h HistoryStore,
	a *auth.Authenticator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		pipeline: p,
		bench:    b,
		history:  h,
		auth:     a,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	s.setupRoutes()

	return s
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.ListenAddress, s.config.Server.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.applyMiddleware(s.mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting server",
		"address", addr,
		"tls", s.config.Server.TLS.Enabled)

	if s.config.Server.TLS.Enabled {
		return s.serveTLS()
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return s.server.Serve(listener)
}

// serveTLS starts the server with TLS.
func (s *Server) serveTLS() error {
	s.server.TLSConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	return s.server.ListenAndServeTLS(
		s.config.Server.TLS.CertFile,
		s.config.Server.TLS.KeyFile,
	)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}

	return nil
}

// Addr returns the server's address. Returns empty string if not started.
func (s *Server) Addr() string {
	if s.server != nil {
		return s.server.Addr
	}
	return ""
}
