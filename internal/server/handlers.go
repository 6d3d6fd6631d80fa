//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/grag-dev/grag-server/internal/auth"
	"github.com/grag-dev/grag-server/internal/history"
	"github.com/grag-dev/grag-server/internal/pipeline"
)

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// LoginRequest is the request body for the login endpoint.
type LoginRequest struct {
	Passcode string `json:"passcode"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// AskRequest is the request body for the ask endpoint. UseRerank
// defaults to true when omitted.
type AskRequest struct {
	Question  string `json:"question"`
	TopK      int    `json:"top_k,omitempty"`
	UseRerank *bool  `json:"use_rerank,omitempty"`
	Stream    bool   `json:"stream,omitempty"`
	SessionID int64  `json:"session_id,omitempty"`
}

// AskResponse is the non-streaming answer payload.
type AskResponse struct {
	*pipeline.Result
	SessionID int64 `json:"session_id,omitempty"`
}

// BenchRequest is the request body for the benchmark endpoint.
type BenchRequest struct {
	Question  string `json:"question"`
	Runs      int    `json:"runs,omitempty"`
	TopK      int    `json:"top_k,omitempty"`
	UseRerank bool   `json:"use_rerank,omitempty"`
}

// HistoryListResponse lists a user's sessions.
type HistoryListResponse struct {
	Sessions []history.Session `json:"sessions"`
}

// HistorySessionResponse is one session with its messages.
type HistorySessionResponse struct {
	Session  *history.Session  `json:"session"`
	Messages []history.Message `json:"messages"`
}

// AuditResponse lists recent audit entries.
type AuditResponse struct {
	Entries []history.AuditEntry `json:"entries"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// streamErrorEvent is the SSE framing for a failed stream.
type streamErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// streamDoneEvent is the terminal SSE payload. It extends the
// pipeline's done event with the session id assigned when the
// exchange was persisted.
type streamDoneEvent struct {
	Type      pipeline.EventType `json:"type"`
	Result    *pipeline.Result   `json:"result"`
	SessionID int64              `json:"session_id,omitempty"`
}

const defaultBenchRuns = 10

// handleHealth handles the GET /v1/health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// handleLogin handles the POST /v1/auth/login endpoint.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil || !s.auth.Enabled() {
		s.respondError(w, http.StatusNotFound, "AUTH_DISABLED",
			"authentication is disabled")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST",
			"invalid request body: "+err.Error())
		return
	}

	token, userID, err := s.auth.Login(req.Passcode)
	if err != nil {
		if errors.Is(err, auth.ErrEmptyPasscode) {
			s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	s.audit(r, userID, "login", nil)
	s.respondJSON(w, http.StatusOK, LoginResponse{Token: token, UserID: userID})
}

// handleAsk handles the POST /v1/ask endpoint.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST",
			"invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "question is required")
		return
	}
	if req.TopK < 0 {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "top_k must be positive")
		return
	}

	useRerank := true
	if req.UseRerank != nil {
		useRerank = *req.UseRerank
	}
	pipeReq := pipeline.Request{
		Question:  req.Question,
		TopK:      req.TopK,
		UseRerank: useRerank,
	}

	identity := identityFrom(r.Context())
	s.audit(r, identity.UserID, "ask", map[string]any{
		"question": req.Question,
		"stream":   req.Stream,
	})

	if req.Stream {
		s.handleAskStream(w, r, identity, req, pipeReq)
		return
	}

	result, err := s.pipeline.Run(r.Context(), pipeReq)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyQuestion) || errors.Is(err, pipeline.ErrInvalidTopK) {
			s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		s.logger.Error("pipeline execution failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "EXECUTION_ERROR", err.Error())
		return
	}

	sessionID := s.persistExchange(r, identity, req, result)
	s.respondJSON(w, http.StatusOK, AskResponse{Result: result, SessionID: sessionID})
}

// handleAskStream streams pipeline events using Server-Sent Events.
// The exchange is persisted when the done event arrives, like the
// non-streaming path, and the done payload carries the session id.
func (s *Server) handleAskStream(w http.ResponseWriter, r *http.Request,
	identity *auth.Identity, askReq AskRequest, req pipeline.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "STREAMING_ERROR",
			"streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, errChan := s.pipeline.RunStream(r.Context(), req)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if err := <-errChan; err != nil {
					s.sendSSE(w, flusher, streamErrorEvent{
						Type:  "error",
						Error: err.Error(),
					})
				}
				return
			}
			if ev.Type == pipeline.EventDone && ev.Result != nil {
				sessionID := s.persistExchange(r, identity, askReq, ev.Result)
				s.sendSSE(w, flusher, streamDoneEvent{
					Type:      ev.Type,
					Result:    ev.Result,
					SessionID: sessionID,
				})
				continue
			}
			s.sendSSE(w, flusher, ev)

		case <-r.Context().Done():
			s.logger.Debug("client disconnected during streaming")
			return
		}
	}
}

// handleBench handles the POST /v1/bench endpoint.
func (s *Server) handleBench(w http.ResponseWriter, r *http.Request) {
	var req BenchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST",
			"invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "question is required")
		return
	}
	runs := req.Runs
	if runs == 0 {
		runs = defaultBenchRuns
	}
	if runs < 1 {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "runs must be positive")
		return
	}

	identity := identityFrom(r.Context())
	s.audit(r, identity.UserID, "bench", map[string]any{
		"question": req.Question,
		"runs":     runs,
	})

	report, err := s.bench.Run(r.Context(), req.Question, runs, req.TopK, req.UseRerank)
	if err != nil {
		s.logger.Error("benchmark failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "EXECUTION_ERROR", err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}

// handleListHistory handles the GET /v1/history endpoint.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusServiceUnavailable, "HISTORY_DISABLED",
			"history persistence is disabled")
		return
	}

	identity := identityFrom(r.Context())
	sessions, err := s.history.ListSessions(r.Context(), identity.UserID, queryLimit(r))
	if err != nil {
		s.logger.Error("listing sessions failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if sessions == nil {
		sessions = []history.Session{}
	}

	s.respondJSON(w, http.StatusOK, HistoryListResponse{Sessions: sessions})
}

// handleGetHistory handles the GET /v1/history/{id} endpoint.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusServiceUnavailable, "HISTORY_DISABLED",
			"history persistence is disabled")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid session id")
		return
	}

	sess, messages, err := s.history.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrSessionNotFound) {
			s.respondError(w, http.StatusNotFound, "SESSION_NOT_FOUND",
				"session not found")
			return
		}
		s.logger.Error("loading session failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	// Users may only read their own sessions.
	identity := identityFrom(r.Context())
	if sess.UserID != identity.UserID {
		s.respondError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
		return
	}
	if messages == nil {
		messages = []history.Message{}
	}

	s.respondJSON(w, http.StatusOK, HistorySessionResponse{Session: sess, Messages: messages})
}

// handleListAudit handles the GET /v1/audit endpoint.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusServiceUnavailable, "HISTORY_DISABLED",
			"history persistence is disabled")
		return
	}

	entries, err := s.history.ListAudit(r.Context(), queryLimit(r))
	if err != nil {
		s.logger.Error("listing audit entries failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if entries == nil {
		entries = []history.AuditEntry{}
	}

	s.respondJSON(w, http.StatusOK, AuditResponse{Entries: entries})
}

// persistExchange stores the question and answer in the session given
// by the request, creating one if needed. Returns the session id, or
// zero when history is disabled. Persistence failures are logged, not
// surfaced; the answer is already computed.
func (s *Server) persistExchange(r *http.Request, identity *auth.Identity,
	req AskRequest, result *pipeline.Result) int64 {
	if s.history == nil {
		return 0
	}
	ctx := r.Context()

	sessionID := req.SessionID
	if sessionID == 0 {
		sess, err := s.history.CreateSession(ctx, identity.UserID)
		if err != nil {
			s.logger.Error("creating session failed", "error", err)
			return 0
		}
		sessionID = sess.ID
	}

	if _, err := s.history.AddMessage(ctx, sessionID, history.RoleUser, req.Question, nil); err != nil {
		s.logger.Error("storing question failed", "error", err)
		return sessionID
	}

	citations, err := json.Marshal(result.Citations)
	if err != nil {
		citations = nil
	}
	if _, err := s.history.AddMessage(ctx, sessionID, history.RoleAssistant,
		result.Answer, citations); err != nil {
		s.logger.Error("storing answer failed", "error", err)
	}
	return sessionID
}

// audit records an action when history is enabled. Failures are
// logged only.
func (s *Server) audit(r *http.Request, userID, action string, details map[string]any) {
	if s.history == nil {
		return
	}

	var raw json.RawMessage
	if details != nil {
		if data, err := json.Marshal(details); err == nil {
			raw = data
		}
	}
	if err := s.history.Audit(r.Context(), userID, action, raw); err != nil {
		s.logger.Error("audit write failed", "action", action, "error", err)
	}
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		return 0
	}
	return limit
}

// sendSSE sends a Server-Sent Event.
func (s *Server) sendSSE(w http.ResponseWriter, flusher http.Flusher, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal SSE event", "error", err)
		return
	}

	// SSE format: data: {json}\n\n
	if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
		s.logger.Error("failed to write SSE event", "error", err)
		return
	}
	flusher.Flush()
}

// respondJSON sends a JSON response with RFC 8631 Link header for API discovery.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	// RFC 8631: Link header for API documentation discovery
	w.Header().Set("Link", `</v1/openapi.json>; rel="service-desc"`)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// respondError sends an error response.
func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
