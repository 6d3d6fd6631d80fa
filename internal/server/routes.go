//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package server

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Public routes
	s.mux.HandleFunc("GET /v1/openapi.json", s.handleOpenAPI)
	s.mux.HandleFunc("GET /v1/health", s.handleHealth)
	s.mux.HandleFunc("POST /v1/auth/login", s.handleLogin)

	// Token-protected routes
	s.mux.Handle("POST /v1/ask", s.requireAuth(s.handleAsk))
	s.mux.Handle("POST /v1/bench", s.requireAuth(s.handleBench))
	s.mux.Handle("GET /v1/history", s.requireAuth(s.handleListHistory))
	s.mux.Handle("GET /v1/history/{id}", s.requireAuth(s.handleGetHistory))
	s.mux.Handle("GET /v1/audit", s.requireAuth(s.handleListAudit))
}
