package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

// GeminiService implements the LLMService interface using the Google Gemini
// API. It serves both embeddings and chat completions.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

var _ interfaces.LLMService = (*GeminiService)(nil)

// NewGeminiService creates a new Gemini LLM service instance
func NewGeminiService(config *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required (set QUAESTOR_GEMINI_API_KEY or llm.gemini.api_key in config)")
	}
	if config.EmbedDimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", config.EmbedDimension)
	}

	timeout := 2 * time.Minute
	if config.Timeout != "" {
		parsed, err := time.ParseDuration(config.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid gemini timeout %q: %w", config.Timeout, err)
		}
		timeout = parsed
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.Info().
		Str("chat_model", config.ChatModel).
		Str("embed_model", config.EmbedModel).
		Int("embed_dimension", config.EmbedDimension).
		Msg("Initialized Gemini LLM service")

	return &GeminiService{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}, nil
}

// Chat generates a completion for the given message history
func (s *GeminiService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", err
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(s.config.Temperature),
		MaxOutputTokens: int32(s.config.MaxTokens),
	}
	if systemText != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.config.ChatModel, contents, genCfg)
	if err != nil {
		if IsRateLimitError(err) {
			s.logger.Warn().
				Err(err).
				Dur("suggested_delay", ExtractRetryDelay(err)).
				Msg("Gemini chat rate limited")
		}
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			builder.WriteString(part.Text)
		}
		break // Only the first candidate is used
	}

	answer := strings.TrimSpace(builder.String())
	if answer == "" {
		return "", fmt.Errorf("gemini returned an empty completion")
	}
	return answer, nil
}

// Embed generates an embedding vector for a single text
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embedding vectors for multiple texts in one API call
func (s *GeminiService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	outputDim := int32(s.config.EmbedDimension)
	result, err := s.client.Models.EmbedContent(ctx, s.config.EmbedModel, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	})
	if err != nil {
		if IsRateLimitError(err) {
			s.logger.Warn().
				Err(err).
				Dur("suggested_delay", ExtractRetryDelay(err)).
				Msg("Gemini embedding rate limited")
		}
		return nil, fmt.Errorf("gemini embedding failed: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	vectors := make([][]float32, 0, len(texts))
	for i, embedding := range result.Embeddings {
		if len(embedding.Values) == 0 {
			return nil, fmt.Errorf("gemini returned an empty embedding at index %d", i)
		}
		vectors = append(vectors, embedding.Values)
	}
	return vectors, nil
}

// HealthCheck verifies the provider is reachable with a minimal embedding call
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.EmbedBatch(ctx, []string{"ping"}); err != nil {
		return fmt.Errorf("gemini health check failed: %w", err)
	}
	return nil
}

// Provider returns the provider name
func (s *GeminiService) Provider() string {
	return "gemini"
}

// Close releases resources
func (s *GeminiService) Close() error {
	return nil
}
