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
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// ValidationError represents a single configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors and returns all validation
// errors found.
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateAuth()...)
	errs = append(errs, c.validateCorpus()...)
	errs = append(errs, c.validateRetrieval()...)
	errs = append(errs, c.validateProviders()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validateServer validates server configuration.
func (c *Config) validateServer() ValidationErrors {
	var errs ValidationErrors

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: "must be between 1 and 65535",
		})
	}

	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			errs = append(errs, ValidationError{
				Field:   "server.tls.cert_file",
				Message: "required when TLS is enabled",
			})
		} else if _, err := os.Stat(expandPath(c.Server.TLS.CertFile)); err != nil {
			errs = append(errs, ValidationError{
				Field:   "server.tls.cert_file",
				Message: fmt.Sprintf("file not found: %s", c.Server.TLS.CertFile),
			})
		}

		if c.Server.TLS.KeyFile == "" {
			errs = append(errs, ValidationError{
				Field:   "server.tls.key_file",
				Message: "required when TLS is enabled",
			})
		} else if _, err := os.Stat(expandPath(c.Server.TLS.KeyFile)); err != nil {
			errs = append(errs, ValidationError{
				Field:   "server.tls.key_file",
				Message: fmt.Sprintf("file not found: %s", c.Server.TLS.KeyFile),
			})
		}
	}

	return errs
}

// validateAuth validates authentication configuration.
func (c *Config) validateAuth() ValidationErrors {
	var errs ValidationErrors

	switch c.Auth.Mode {
	case AuthModeDemo:
		if c.Auth.JWTSecret == "" {
			errs = append(errs, ValidationError{
				Field:   "auth.jwt_secret",
				Message: "required when auth mode is demo",
			})
		}
		if c.Auth.TokenTTLMinutes < 1 {
			errs = append(errs, ValidationError{
				Field:   "auth.token_ttl_minutes",
				Message: "must be positive",
			})
		}
	case AuthModeDisabled:
	default:
		errs = append(errs, ValidationError{
			Field:   "auth.mode",
			Message: fmt.Sprintf("must be %q or %q", AuthModeDemo, AuthModeDisabled),
		})
	}

	return errs
}

// validateCorpus validates corpus and chunking configuration. An overlap
// that is not strictly smaller than the chunk size would make chunking
// loop forever, so it is rejected here, before any document is read.
func (c *Config) validateCorpus() ValidationErrors {
	var errs ValidationErrors

	if c.Corpus.ChunkSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "corpus.chunk_size",
			Message: "must be positive",
		})
	}

	if c.Corpus.ChunkOverlap < 0 {
		errs = append(errs, ValidationError{
			Field:   "corpus.chunk_overlap",
			Message: "must not be negative",
		})
	} else if c.Corpus.ChunkSize > 0 && c.Corpus.ChunkOverlap >= c.Corpus.ChunkSize {
		errs = append(errs, ValidationError{
			Field:   "corpus.chunk_overlap",
			Message: "must be smaller than corpus.chunk_size",
		})
	}

	if db := c.Corpus.Database; db != nil {
		if db.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "corpus.database.host",
				Message: "required",
			})
		}
		if db.Database == "" {
			errs = append(errs, ValidationError{
				Field:   "corpus.database.database",
				Message: "required",
			})
		}
		if db.Table == "" {
			errs = append(errs, ValidationError{
				Field:   "corpus.database.table",
				Message: "required",
			})
		}
	}

	return errs
}

// validateRetrieval validates retrieval engine configuration.
func (c *Config) validateRetrieval() ValidationErrors {
	var errs ValidationErrors

	if c.Retrieval.TopK < 1 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.top_k",
			Message: "must be positive",
		})
	}

	if c.Retrieval.CacheSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.cache_size",
			Message: "must be positive",
		})
	}

	if c.Retrieval.VectorWeight < 0 || c.Retrieval.VectorWeight > 1 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.vector_weight",
			Message: "must be between 0 and 1",
		})
	}

	if c.Retrieval.LexicalWeight < 0 || c.Retrieval.LexicalWeight > 1 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.lexical_weight",
			Message: "must be between 0 and 1",
		})
	}

	return errs
}

// validateProviders validates embedding and generation configuration.
func (c *Config) validateProviders() ValidationErrors {
	var errs ValidationErrors

	switch c.Embedding.Mode {
	case EmbeddingModeHash:
	case EmbeddingModeProvider:
		if c.Embedding.Provider == "" {
			errs = append(errs, ValidationError{
				Field:   "embedding.provider",
				Message: "required when embedding mode is provider",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "embedding.mode",
			Message: fmt.Sprintf("must be %q or %q", EmbeddingModeHash, EmbeddingModeProvider),
		})
	}

	switch c.Generation.Mode {
	case GenerationModeTemplate:
	case GenerationModeModel:
		if c.Generation.Provider == "" {
			errs = append(errs, ValidationError{
				Field:   "generation.provider",
				Message: "required when generation mode is model",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "generation.mode",
			Message: fmt.Sprintf("must be %q or %q", GenerationModeTemplate, GenerationModeModel),
		})
	}

	if c.Generation.TimeoutSeconds < 1 {
		errs = append(errs, ValidationError{
			Field:   "generation.timeout_seconds",
			Message: "must be positive",
		})
	}

	if c.Generation.StreamDelayMS < 0 {
		errs = append(errs, ValidationError{
			Field:   "generation.stream_delay_ms",
			Message: "must not be negative",
		})
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "history.path",
			Message: "required when history is enabled",
		})
	}

	if c.Bench.CostPer1KTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "bench.cost_per_1k_tokens",
			Message: "must not be negative",
		})
	}

	return errs
}
