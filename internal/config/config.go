//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration loading and validation for the
// G-RAG Server.
package config

// Config is the root configuration structure for the server.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	History    HistoryConfig    `yaml:"history"`
	Bench      BenchConfig      `yaml:"bench"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	ListenAddress string     `yaml:"listen_address"`
	Port          int        `yaml:"port"`
	TLS           TLSConfig  `yaml:"tls"`
	CORS          CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) settings.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"` // Origins to allow, or ["*"] for all
}

// TLSConfig contains TLS/HTTPS settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// AuthConfig contains authentication settings. In "demo" mode any passcode
// is accepted at login and exchanged for a signed token; "disabled" turns
// authentication off entirely.
type AuthConfig struct {
	Mode            string `yaml:"mode"` // "demo" or "disabled"
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// CorpusConfig describes where the corpus comes from and how it is chunked.
type CorpusConfig struct {
	DataDir        string          `yaml:"data_dir"`
	SampleFallback *bool           `yaml:"sample_fallback"` // Use built-in samples when empty (default: true)
	ChunkSize      int             `yaml:"chunk_size"`
	ChunkOverlap   int             `yaml:"chunk_overlap"`
	Database       *DatabaseConfig `yaml:"database"` // Optional PostgreSQL document source
}

// DatabaseConfig contains PostgreSQL connection settings for the optional
// database-backed corpus source.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`

	Table      string `yaml:"table"`
	IDColumn   string `yaml:"id_column"`
	TextColumn string `yaml:"text_column"`
}

// RetrievalConfig contains retrieval engine settings.
type RetrievalConfig struct {
	TopK          int     `yaml:"top_k"`          // Default result count per query
	CacheSize     int     `yaml:"cache_size"`     // Result cache capacity (entries)
	VectorWeight  float64 `yaml:"vector_weight"`  // Rerank weight for the vector score
	LexicalWeight float64 `yaml:"lexical_weight"` // Rerank weight for lexical overlap
}

// EmbeddingConfig selects the embedding strategy, chosen once at startup.
type EmbeddingConfig struct {
	Mode       string `yaml:"mode"` // "hash" or "provider"
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"` // Override the provider endpoint
	APIKeyFile string `yaml:"api_key_file"`
}

// GenerationConfig selects the answer generation strategy.
type GenerationConfig struct {
	Mode           string `yaml:"mode"` // "template" or "model"
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"` // Override the provider endpoint
	APIKeyFile     string `yaml:"api_key_file"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // Model call timeout before template fallback
	StreamDelayMS  int    `yaml:"stream_delay_ms"` // Pacing for template-mode streaming
}

// HistoryConfig contains chat history and audit log persistence settings.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // SQLite database file
}

// BenchConfig contains benchmark harness settings.
type BenchConfig struct {
	CostPer1KTokens float64 `yaml:"cost_per_1k_tokens"`
}

// Mode names used across the configuration.
const (
	EmbeddingModeHash     = "hash"
	EmbeddingModeProvider = "provider"

	GenerationModeTemplate = "template"
	GenerationModeModel    = "model"

	AuthModeDemo     = "demo"
	AuthModeDisabled = "disabled"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress: "0.0.0.0",
			Port:          8080,
			TLS: TLSConfig{
				Enabled: false,
			},
		},
		Auth: AuthConfig{
			Mode:            AuthModeDemo,
			JWTSecret:       "demo-secret",
			TokenTTLMinutes: 60,
		},
		Corpus: CorpusConfig{
			DataDir:      "./data",
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
		Retrieval: RetrievalConfig{
			TopK:          4,
			CacheSize:     1000,
			VectorWeight:  0.7,
			LexicalWeight: 0.3,
		},
		Embedding: EmbeddingConfig{
			Mode: EmbeddingModeHash,
		},
		Generation: GenerationConfig{
			Mode:           GenerationModeTemplate,
			TimeoutSeconds: 60,
			StreamDelayMS:  10,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "./data/grag.db",
		},
		Bench: BenchConfig{
			CostPer1KTokens: 0.002,
		},
	}
}

// SampleFallbackEnabled reports whether the built-in sample corpus should be
// used when no documents are found. Defaults to true when unset.
func (c CorpusConfig) SampleFallbackEnabled() bool {
	if c.SampleFallback == nil {
		return true
	}
	return *c.SampleFallback
}
