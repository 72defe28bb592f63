package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Vector      VectorConfig     `toml:"vector"`
	LLM         LLMConfig        `toml:"llm"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	RAG         RAGConfig        `toml:"rag"`
	Documents   DocumentsConfig  `toml:"documents"`
	Processing  ProcessingConfig `toml:"processing"`
	Logging     LoggingConfig    `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `toml:"sqlite"`
	Blob   BlobConfig   `toml:"blob"`
}

// SQLiteConfig represents the relational store configuration
type SQLiteConfig struct {
	Path string `toml:"path" validate:"required"` // Database file path
}

// BlobConfig represents the binary upload store configuration
type BlobConfig struct {
	Path string `toml:"path" validate:"required"` // Base directory for uploaded files
}

// VectorConfig contains Qdrant connection settings
type VectorConfig struct {
	URL      string `toml:"url" validate:"required,url"` // Qdrant base URL
	APIKey   string `toml:"api_key"`                     // Optional api-key header value
	Timeout  string `toml:"timeout"`                     // HTTP timeout as duration string (default: "30s")
	CacheTTL string `toml:"cache_ttl"`                   // Known-collection cache TTL (default: "5m")
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API for chat (embeddings stay on Gemini)
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains provider selection plus per-provider settings
type LLMConfig struct {
	ChatProvider LLMProvider  `toml:"chat_provider" validate:"oneof=gemini claude"` // "gemini" or "claude"
	Gemini       GeminiConfig `toml:"gemini"`
	Claude       ClaudeConfig `toml:"claude"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`         // Google Gemini API key
	ChatModel      string  `toml:"chat_model"`      // Model for answer generation (default: "gemini-3-flash-preview")
	EmbedModel     string  `toml:"embed_model"`     // Model for embeddings (default: "gemini-embedding-001")
	EmbedDimension int     `toml:"embed_dimension"` // Output dimensionality (default: 768)
	Timeout        string  `toml:"timeout"`         // Operation timeout as duration string (default: "2m")
	RateLimit      string  `toml:"rate_limit"`      // Minimum gap between embedding batches (default: "1s")
	MaxRetries     int     `toml:"max_retries"`     // Embedding batch retry attempts (default: 3)
	Temperature    float32 `toml:"temperature"`     // Answer generation temperature (default: 0.1)
	MaxTokens      int     `toml:"max_tokens"`      // Maximum tokens in answer (default: 600)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for answer generation (default: "claude-haiku-3-5-20241022")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Answer generation temperature (default: 0.1)
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in answer (default: 600)
}

// PipelineConfig controls document processing behavior
type PipelineConfig struct {
	ChunkSize      int    `toml:"chunk_size" validate:"gt=0"`   // Characters per chunk (default: 1000)
	ChunkOverlap   int    `toml:"chunk_overlap" validate:"gte=0"` // Overlap between consecutive chunks (default: 200)
	ProcessTimeout string `toml:"process_timeout"`              // Per-document timeout for detached runs (default: "10m")
}

// RAGConfig controls retrieval and answer generation
type RAGConfig struct {
	MaxChunks       int     `toml:"max_chunks" validate:"gt=0"` // Top-K chunks to retrieve (default: 5)
	ScoreThreshold  float32 `toml:"score_threshold"`            // Caller similarity threshold (default: 0.7, clamped to 0.2)
	MaxContextChars int     `toml:"max_context_chars"`          // Context budget in characters (default: 3000)
}

// DocumentsConfig controls upload validation
type DocumentsConfig struct {
	MaxFileSize      int64    `toml:"max_file_size" validate:"gt=0"` // Maximum upload size in bytes (default: 50MB)
	AllowedMimeTypes []string `toml:"allowed_mime_types"`            // Accepted content types (default: application/pdf)
}

// ProcessingConfig controls the scheduled sweep of pending documents
type ProcessingConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
	Limit    int    `toml:"limit"`    // Max documents to process per sweep run
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path: "./data/quaestor.db",
			},
			Blob: BlobConfig{
				Path: "./data/uploads",
			},
		},
		Vector: VectorConfig{
			URL:      "http://localhost:6333",
			APIKey:   "", // User must provide for secured deployments
			Timeout:  "30s",
			CacheTTL: "5m",
		},
		LLM: LLMConfig{
			ChatProvider: LLMProviderGemini,
			Gemini: GeminiConfig{
				APIKey:         "", // User must provide API key (no fallback)
				ChatModel:      "gemini-3-flash-preview",
				EmbedModel:     "gemini-embedding-001",
				EmbedDimension: 768,
				Timeout:        "2m",
				RateLimit:      "1s",
				MaxRetries:     3,
				Temperature:    0.1, // Low temperature keeps answers grounded in retrieved context
				MaxTokens:      600,
			},
			Claude: ClaudeConfig{
				APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
				Model:       "claude-haiku-3-5-20241022",
				Timeout:     "2m",
				Temperature: 0.1,
				MaxTokens:   600,
			},
		},
		Pipeline: PipelineConfig{
			ChunkSize:      1000,
			ChunkOverlap:   200,
			ProcessTimeout: "10m",
		},
		RAG: RAGConfig{
			MaxChunks:       5,
			ScoreThreshold:  0.7,
			MaxContextChars: 3000,
		},
		Documents: DocumentsConfig{
			MaxFileSize:      50 * 1024 * 1024, // 50MB
			AllowedMimeTypes: []string{"application/pdf"},
		},
		Processing: ProcessingConfig{
			Enabled:  false, // Disabled by default - user must explicitly opt-in
			Schedule: "0 */5 * * * *",
			Limit:    25,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("QUAESTOR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("QUAESTOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("QUAESTOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if path := os.Getenv("QUAESTOR_SQLITE_PATH"); path != "" {
		config.Storage.SQLite.Path = path
	}
	if path := os.Getenv("QUAESTOR_BLOB_PATH"); path != "" {
		config.Storage.Blob.Path = path
	}

	// Vector store configuration
	if url := os.Getenv("QUAESTOR_QDRANT_URL"); url != "" {
		config.Vector.URL = url
	}
	if key := os.Getenv("QUAESTOR_QDRANT_API_KEY"); key != "" {
		config.Vector.APIKey = key
	}

	// LLM configuration
	if provider := os.Getenv("QUAESTOR_LLM_PROVIDER"); provider != "" {
		config.LLM.ChatProvider = LLMProvider(provider)
	}
	if key := os.Getenv("QUAESTOR_GEMINI_API_KEY"); key != "" {
		config.LLM.Gemini.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.LLM.Gemini.APIKey = key
	}
	if model := os.Getenv("QUAESTOR_GEMINI_CHAT_MODEL"); model != "" {
		config.LLM.Gemini.ChatModel = model
	}
	if model := os.Getenv("QUAESTOR_GEMINI_EMBED_MODEL"); model != "" {
		config.LLM.Gemini.EmbedModel = model
	}
	if dim := os.Getenv("QUAESTOR_GEMINI_EMBED_DIMENSION"); dim != "" {
		if d, err := strconv.Atoi(dim); err == nil {
			config.LLM.Gemini.EmbedDimension = d
		}
	}
	if key := os.Getenv("QUAESTOR_CLAUDE_API_KEY"); key != "" {
		config.LLM.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.LLM.Claude.APIKey = key
	}
	if model := os.Getenv("QUAESTOR_CLAUDE_MODEL"); model != "" {
		config.LLM.Claude.Model = model
	}

	// Pipeline configuration
	if size := os.Getenv("QUAESTOR_CHUNK_SIZE"); size != "" {
		if s, err := strconv.Atoi(size); err == nil {
			config.Pipeline.ChunkSize = s
		}
	}
	if overlap := os.Getenv("QUAESTOR_CHUNK_OVERLAP"); overlap != "" {
		if o, err := strconv.Atoi(overlap); err == nil {
			config.Pipeline.ChunkOverlap = o
		}
	}

	// Processing sweep configuration
	if enabled := os.Getenv("QUAESTOR_PROCESSING_ENABLED"); enabled != "" {
		config.Processing.Enabled = enabled == "true" || enabled == "1"
	}
	if schedule := os.Getenv("QUAESTOR_PROCESSING_SCHEDULE"); schedule != "" {
		config.Processing.Schedule = schedule
	}

	// Logging configuration
	if level := os.Getenv("QUAESTOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("QUAESTOR_LOG_OUTPUT"); output != "" {
		parts := strings.Split(output, ",")
		outputs := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}
