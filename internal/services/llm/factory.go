package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

// NewServices creates the chat and embedding providers from configuration.
// Embeddings always run on Gemini; when the chat provider is Gemini too, a
// single service instance serves both roles.
func NewServices(cfg *common.Config, logger arbor.ILogger) (chat interfaces.LLMService, embed interfaces.LLMService, err error) {
	logger.Info().Str("chat_provider", string(cfg.LLM.ChatProvider)).Msg("Initializing LLM services")

	gemini, err := NewGeminiService(&cfg.LLM.Gemini, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gemini service: %w", err)
	}

	switch cfg.LLM.ChatProvider {
	case common.LLMProviderGemini:
		return gemini, gemini, nil

	case common.LLMProviderClaude:
		claude, err := NewClaudeService(&cfg.LLM.Claude, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create claude service: %w", err)
		}
		return claude, gemini, nil

	default:
		return nil, nil, fmt.Errorf("unsupported chat provider %q: must be 'gemini' or 'claude'", cfg.LLM.ChatProvider)
	}
}
