package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

// ClaudeService implements the LLMService interface using the Anthropic API.
// Claude has no embedding endpoint, so the embedding methods return an error;
// pair this service with Gemini for embeddings.
type ClaudeService struct {
	config  *common.ClaudeConfig
	logger  arbor.ILogger
	client  anthropic.Client
	timeout time.Duration
}

var _ interfaces.LLMService = (*ClaudeService)(nil)

// NewClaudeService creates a new Claude LLM service instance
func NewClaudeService(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY or llm.claude.api_key in config)")
	}

	timeout := 2 * time.Minute
	if config.Timeout != "" {
		parsed, err := time.ParseDuration(config.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid claude timeout %q: %w", config.Timeout, err)
		}
		timeout = parsed
	}

	client := anthropic.NewClient(option.WithAPIKey(config.APIKey))

	logger.Info().Str("model", config.Model).Msg("Initialized Claude LLM service")

	return &ClaudeService{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}, nil
}

// Chat generates a completion for the given message history
func (s *ClaudeService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		return "", err
	}

	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(s.config.Model),
		MaxTokens:   int64(s.config.MaxTokens),
		Messages:    params,
		Temperature: anthropic.Float(float64(s.config.Temperature)),
	}
	if systemText != "" {
		req.System = []anthropic.TextBlockParam{{Text: systemText}}
	}

	resp, err := s.client.Messages.New(ctx, req)
	if err != nil {
		if IsRateLimitError(err) {
			s.logger.Warn().Err(err).Msg("Claude chat rate limited")
		}
		return "", fmt.Errorf("claude completion failed: %w", err)
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}

	answer := strings.TrimSpace(builder.String())
	if answer == "" {
		return "", fmt.Errorf("claude returned an empty completion")
	}
	return answer, nil
}

// Embed is not supported by Claude
func (s *ClaudeService) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("claude provider does not support embeddings")
}

// EmbedBatch is not supported by Claude
func (s *ClaudeService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("claude provider does not support embeddings")
}

// HealthCheck verifies the provider is reachable with a minimal completion
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: 8,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("ping"))},
	})
	if err != nil {
		return fmt.Errorf("claude health check failed: %w", err)
	}
	return nil
}

// Provider returns the provider name
func (s *ClaudeService) Provider() string {
	return "claude"
}

// Close releases resources
func (s *ClaudeService) Close() error {
	return nil
}
