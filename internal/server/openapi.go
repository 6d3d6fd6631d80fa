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
	"net/http"
)

// OpenAPISpec represents the OpenAPI v3 specification.
type OpenAPISpec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       OpenAPIInfo            `json:"info"`
	Servers    []OpenAPIServer        `json:"servers"`
	Paths      map[string]OpenAPIPath `json:"paths"`
	Components OpenAPIComponents      `json:"components"`
}

// OpenAPIInfo contains API metadata.
type OpenAPIInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// OpenAPIServer describes a server.
type OpenAPIServer struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// OpenAPIPath contains operations for a path.
type OpenAPIPath struct {
	Get    *OpenAPIOperation `json:"get,omitempty"`
	Post   *OpenAPIOperation `json:"post,omitempty"`
	Put    *OpenAPIOperation `json:"put,omitempty"`
	Delete *OpenAPIOperation `json:"delete,omitempty"`
}

// OpenAPIOperation describes an API operation.
type OpenAPIOperation struct {
	Summary     string                     `json:"summary"`
	Description string                     `json:"description,omitempty"`
	OperationID string                     `json:"operationId"`
	Tags        []string                   `json:"tags,omitempty"`
	Parameters  []OpenAPIParameter         `json:"parameters,omitempty"`
	RequestBody *OpenAPIRequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]OpenAPIResponse `json:"responses"`
}

// OpenAPIParameter describes a parameter.
type OpenAPIParameter struct {
	Name        string        `json:"name"`
	In          string        `json:"in"`
	Description string        `json:"description,omitempty"`
	Required    bool          `json:"required"`
	Schema      OpenAPISchema `json:"schema"`
}

// OpenAPIRequestBody describes a request body.
type OpenAPIRequestBody struct {
	Description string                      `json:"description,omitempty"`
	Required    bool                        `json:"required"`
	Content     map[string]OpenAPIMediaType `json:"content"`
}

// OpenAPIResponse describes a response.
type OpenAPIResponse struct {
	Description string                      `json:"description"`
	Content     map[string]OpenAPIMediaType `json:"content,omitempty"`
}

// OpenAPIMediaType describes a media type.
type OpenAPIMediaType struct {
	Schema OpenAPISchema `json:"schema"`
}

// OpenAPISchema describes a schema.
type OpenAPISchema struct {
	Type        string                   `json:"type,omitempty"`
	Format      string                   `json:"format,omitempty"`
	Description string                   `json:"description,omitempty"`
	Properties  map[string]OpenAPISchema `json:"properties,omitempty"`
	Items       *OpenAPISchema           `json:"items,omitempty"`
	Required    []string                 `json:"required,omitempty"`
	Default     any                      `json:"default,omitempty"`
	Ref         string                   `json:"$ref,omitempty"`
}

// OpenAPIComponents contains reusable components.
type OpenAPIComponents struct {
	Schemas map[string]OpenAPISchema `json:"schemas"`
}

// handleOpenAPI handles the GET /v1/openapi.json endpoint.
func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, BuildOpenAPISpec())
}

func jsonContent(ref string) map[string]OpenAPIMediaType {
	return map[string]OpenAPIMediaType{
		"application/json": {Schema: OpenAPISchema{Ref: ref}},
	}
}

func errorResponse(description string) OpenAPIResponse {
	return OpenAPIResponse{
		Description: description,
		Content:     jsonContent("#/components/schemas/ErrorResponse"),
	}
}

// BuildOpenAPISpec constructs the OpenAPI v3 specification.
// This is exported so it can be used to generate static documentation.
func BuildOpenAPISpec() OpenAPISpec {
	return OpenAPISpec{
		OpenAPI: "3.0.3",
		Info: OpenAPIInfo{
			Title:       "G-RAG Server API",
			Description: "REST API for retrieval-augmented question answering with citations, streaming, history, and benchmarking",
			Version:     "1.0.0",
		},
		Servers: []OpenAPIServer{
			{
				URL:         "/v1",
				Description: "API v1",
			},
		},
		Paths: map[string]OpenAPIPath{
			"/health": {
				Get: &OpenAPIOperation{
					Summary:     "Health check",
					Description: "Check if the server is running and healthy",
					OperationID: "getHealth",
					Tags:        []string{"System"},
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "Server is healthy",
							Content:     jsonContent("#/components/schemas/HealthResponse"),
						},
					},
				},
			},
			"/auth/login": {
				Post: &OpenAPIOperation{
					Summary:     "Login",
					Description: "Exchange a passcode for a bearer token",
					OperationID: "login",
					Tags:        []string{"Auth"},
					RequestBody: &OpenAPIRequestBody{
						Description: "Login request",
						Required:    true,
						Content:     jsonContent("#/components/schemas/LoginRequest"),
					},
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "Issued token",
							Content:     jsonContent("#/components/schemas/LoginResponse"),
						},
						"400": errorResponse("Invalid request"),
					},
				},
			},
			"/ask": {
				Post: &OpenAPIOperation{
					Summary:     "Ask a question",
					Description: "Run the answer pipeline over the corpus, optionally streaming events as Server-Sent Events",
					OperationID: "ask",
					Tags:        []string{"Answers"},
					RequestBody: &OpenAPIRequestBody{
						Description: "Question request",
						Required:    true,
						Content:     jsonContent("#/components/schemas/AskRequest"),
					},
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "Answer with citations and metrics",
							Content:     jsonContent("#/components/schemas/AskResponse"),
						},
						"400": errorResponse("Invalid request"),
						"401": errorResponse("Missing or invalid token"),
					},
				},
			},
			"/bench": {
				Post: &OpenAPIOperation{
					Summary:     "Benchmark",
					Description: "Run the pipeline repeatedly and report latency percentiles and cost",
					OperationID: "runBench",
					Tags:        []string{"Benchmarks"},
					RequestBody: &OpenAPIRequestBody{
						Description: "Benchmark request",
						Required:    true,
						Content:     jsonContent("#/components/schemas/BenchRequest"),
					},
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "Benchmark report",
							Content:     jsonContent("#/components/schemas/BenchReport"),
						},
						"400": errorResponse("Invalid request"),
						"401": errorResponse("Missing or invalid token"),
					},
				},
			},
			"/history": {
				Get: &OpenAPIOperation{
					Summary:     "List sessions",
					Description: "List the caller's chat sessions, newest first",
					OperationID: "listHistory",
					Tags:        []string{"History"},
					Parameters: []OpenAPIParameter{
						{
							Name:        "limit",
							In:          "query",
							Description: "Maximum number of sessions",
							Required:    false,
							Schema:      OpenAPISchema{Type: "integer"},
						},
					},
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "Session list",
							Content:     jsonContent("#/components/schemas/HistoryListResponse"),
						},
						"401": errorResponse("Missing or invalid token"),
					},
				},
			},
			"/history/{id}": {
				Get: &OpenAPIOperation{
					Summary:     "Get session",
					Description: "Get one session with its messages",
					OperationID: "getHistorySession",
					Tags:        []string{"History"},
					Parameters: []OpenAPIParameter{
						{
							Name:        "id",
							In:          "path",
							Description: "Session id",
							Required:    true,
							Schema:      OpenAPISchema{Type: "integer"},
						},
					},
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "Session with messages",
							Content:     jsonContent("#/components/schemas/HistorySessionResponse"),
						},
						"404": errorResponse("Session not found"),
						"401": errorResponse("Missing or invalid token"),
					},
				},
			},
			"/audit": {
				Get: &OpenAPIOperation{
					Summary:     "List audit entries",
					Description: "List recent audit log entries, newest first",
					OperationID: "listAudit",
					Tags:        []string{"History"},
					Parameters: []OpenAPIParameter{
						{
							Name:        "limit",
							In:          "query",
							Description: "Maximum number of entries",
							Required:    false,
							Schema:      OpenAPISchema{Type: "integer"},
						},
					},
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "Audit entries",
							Content:     jsonContent("#/components/schemas/AuditResponse"),
						},
						"401": errorResponse("Missing or invalid token"),
					},
				},
			},
		},
		Components: OpenAPIComponents{
			Schemas: map[string]OpenAPISchema{
				"HealthResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"status": {Type: "string"},
					},
				},
				"LoginRequest": {
					Type:     "object",
					Required: []string{"passcode"},
					Properties: map[string]OpenAPISchema{
						"passcode": {Type: "string"},
					},
				},
				"LoginResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"token":   {Type: "string"},
						"user_id": {Type: "string"},
					},
				},
				"AskRequest": {
					Type:     "object",
					Required: []string{"question"},
					Properties: map[string]OpenAPISchema{
						"question":   {Type: "string"},
						"top_k":      {Type: "integer", Default: 4},
						"use_rerank": {Type: "boolean", Default: true},
						"stream":     {Type: "boolean", Default: false},
						"session_id": {Type: "integer", Description: "Existing session to append the exchange to"},
					},
				},
				"AskResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"answer": {Type: "string"},
						"intent": {Type: "string"},
						"citations": {
							Type:  "array",
							Items: &OpenAPISchema{Ref: "#/components/schemas/Citation"},
						},
						"metrics":    {Ref: "#/components/schemas/Metrics"},
						"session_id": {Type: "integer"},
					},
				},
				"Citation": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"id":      {Type: "string"},
						"title":   {Type: "string"},
						"snippet": {Type: "string"},
						"score":   {Type: "number", Format: "double"},
					},
				},
				"Metrics": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"total_elapsed_ms": {Type: "number", Format: "double"},
						"node_count":       {Type: "integer"},
						"retrieved_docs":   {Type: "integer"},
						"cache_hit":        {Type: "boolean"},
						"est_tokens":       {Type: "integer"},
						"node_history": {
							Type:  "array",
							Items: &OpenAPISchema{Type: "object"},
						},
					},
				},
				"BenchRequest": {
					Type:     "object",
					Required: []string{"question"},
					Properties: map[string]OpenAPISchema{
						"question":   {Type: "string"},
						"runs":       {Type: "integer", Default: defaultBenchRuns},
						"top_k":      {Type: "integer", Default: 4},
						"use_rerank": {Type: "boolean", Default: false},
					},
				},
				"BenchReport": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"question":         {Type: "string"},
						"runs":             {Type: "integer"},
						"p50_ms":           {Type: "number", Format: "double"},
						"p95_ms":           {Type: "number", Format: "double"},
						"avg_ms":           {Type: "number", Format: "double"},
						"cache_hits":       {Type: "integer"},
						"cache_hit_rate":   {Type: "number", Format: "double"},
						"total_est_tokens": {Type: "integer"},
						"est_cost_usd":     {Type: "number", Format: "double"},
					},
				},
				"HistoryListResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"sessions": {
							Type:  "array",
							Items: &OpenAPISchema{Type: "object"},
						},
					},
				},
				"HistorySessionResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"session": {Type: "object"},
						"messages": {
							Type:  "array",
							Items: &OpenAPISchema{Type: "object"},
						},
					},
				},
				"AuditResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"entries": {
							Type:  "array",
							Items: &OpenAPISchema{Type: "object"},
						},
					},
				},
				"ErrorResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"error": {
							Type: "object",
							Properties: map[string]OpenAPISchema{
								"code":    {Type: "string"},
								"message": {Type: "string"},
							},
						},
					},
				},
			},
		},
	}
}
