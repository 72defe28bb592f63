package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quaestor.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 1000, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 200, cfg.Pipeline.ChunkOverlap)
	assert.Equal(t, 5, cfg.RAG.MaxChunks)
	assert.Equal(t, 3000, cfg.RAG.MaxContextChars)
	assert.Equal(t, int64(50*1024*1024), cfg.Documents.MaxFileSize)
	assert.Equal(t, []string{"application/pdf"}, cfg.Documents.AllowedMimeTypes)
	assert.Equal(t, LLMProviderGemini, cfg.LLM.ChatProvider)
	assert.Equal(t, 768, cfg.LLM.Gemini.EmbedDimension)
	assert.False(t, cfg.Processing.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromFiles_MergesOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
[server]
port = 9090

[pipeline]
chunk_size = 500

[llm]
chat_provider = "claude"
`)

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Pipeline.ChunkSize)
	assert.Equal(t, LLMProviderClaude, cfg.LLM.ChatProvider)

	// Untouched sections keep their defaults
	assert.Equal(t, 200, cfg.Pipeline.ChunkOverlap)
	assert.Equal(t, 5, cfg.RAG.MaxChunks)
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	first := writeConfigFile(t, `
[server]
port = 9090
host = "first-host"
`)
	second := writeConfigFile(t, `
[server]
port = 9999
`)

	cfg, err := LoadFromFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "first-host", cfg.Server.Host)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	t.Setenv("QUAESTOR_SERVER_PORT", "7777")
	t.Setenv("QUAESTOR_QDRANT_URL", "http://qdrant.internal:6333")
	t.Setenv("QUAESTOR_LLM_PROVIDER", "claude")
	t.Setenv("QUAESTOR_CHUNK_SIZE", "800")
	t.Setenv("QUAESTOR_PROCESSING_ENABLED", "true")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "http://qdrant.internal:6333", cfg.Vector.URL)
	assert.Equal(t, LLMProviderClaude, cfg.LLM.ChatProvider)
	assert.Equal(t, 800, cfg.Pipeline.ChunkSize)
	assert.True(t, cfg.Processing.Enabled)
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[server]
port = 9090
`)
	t.Setenv("QUAESTOR_SERVER_PORT", "6060")

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestLoadFromFiles_GeminiKeyFallback(t *testing.T) {
	t.Setenv("QUAESTOR_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "fallback-key")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, "fallback-key", cfg.LLM.Gemini.APIKey)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadFromFiles_InvalidConfigRejected(t *testing.T) {
	path := writeConfigFile(t, `
[server]
port = -1
`)

	_, err := LoadFromFiles(path)
	assert.Error(t, err)
}

func TestValidate_RejectsBadProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.LLM.ChatProvider = "openai"

	assert.Error(t, cfg.Validate())
}
