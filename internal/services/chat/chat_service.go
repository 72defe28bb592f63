package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
	"github.com/quaestor-ai/quaestor/internal/models"
	"github.com/quaestor-ai/quaestor/internal/services/rag"
)

// maxTitleLength bounds the auto-generated conversation title
const maxTitleLength = 50

// QueryEngine answers a question from a tenant's documents
type QueryEngine interface {
	Query(ctx context.Context, tenantID, question string) (*rag.Result, error)
}

// Response is the outcome of one chat turn
type Response struct {
	ConversationID string            `json:"conversation_id"`
	Answer         string            `json:"answer"`
	Citations      []models.Citation `json:"citations"`
	ChunksUsed     int               `json:"chunks_used"`
}

// Service manages conversations and runs chat turns through the query
// engine. The user message is persisted before the engine runs, so a failed
// turn still leaves the question in the transcript.
type Service struct {
	conversations interfaces.ConversationStorage
	engine        QueryEngine
	logger        arbor.ILogger
}

// NewService creates a chat service
func NewService(conversations interfaces.ConversationStorage, engine QueryEngine, logger arbor.ILogger) *Service {
	return &Service{
		conversations: conversations,
		engine:        engine,
		logger:        logger,
	}
}

// SendMessage runs one chat turn. With an empty conversationID a new
// conversation is created, titled from the question.
func (s *Service) SendMessage(ctx context.Context, tenantID, userID, conversationID, question string) (*Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	conv, err := s.resolveConversation(ctx, tenantID, userID, conversationID, question)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userMsg := &models.Message{
		ID:             common.NewMessageID(),
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        question,
		CreatedAt:      now,
	}
	if err := s.conversations.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	result, err := s.engine.Query(ctx, tenantID, question)
	if err != nil {
		return nil, err
	}

	citationsJSON, err := json.Marshal(result.Citations)
	if err != nil {
		return nil, fmt.Errorf("failed to encode citations: %w", err)
	}

	assistantMsg := &models.Message{
		ID:             common.NewMessageID(),
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        result.Answer,
		CitationsJSON:  string(citationsJSON),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.conversations.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}

	if err := s.conversations.TouchConversation(ctx, tenantID, conv.ID); err != nil {
		s.logger.Warn().
			Err(err).
			Str("conversation_id", conv.ID).
			Msg("Failed to bump conversation timestamp")
	}

	s.logger.Info().
		Str("tenant_id", tenantID).
		Str("conversation_id", conv.ID).
		Int("chunks_used", result.ChunksUsed).
		Msg("Chat turn completed")

	return &Response{
		ConversationID: conv.ID,
		Answer:         result.Answer,
		Citations:      result.Citations,
		ChunksUsed:     result.ChunksUsed,
	}, nil
}

// GetConversation returns one conversation scoped to its tenant and user
func (s *Service) GetConversation(ctx context.Context, tenantID, userID, conversationID string) (*models.Conversation, error) {
	return s.conversations.GetConversation(ctx, tenantID, userID, conversationID)
}

// ListConversations returns a user's conversations, most recently active first
func (s *Service) ListConversations(ctx context.Context, tenantID, userID string, offset, limit int) ([]*models.Conversation, error) {
	return s.conversations.ListConversations(ctx, tenantID, userID, offset, limit)
}

// ListMessages returns a conversation's transcript in chronological order
func (s *Service) ListMessages(ctx context.Context, tenantID, userID, conversationID string) ([]*models.Message, error) {
	if _, err := s.conversations.GetConversation(ctx, tenantID, userID, conversationID); err != nil {
		return nil, err
	}
	return s.conversations.ListMessages(ctx, tenantID, conversationID)
}

// DeleteConversation removes a conversation and its messages
func (s *Service) DeleteConversation(ctx context.Context, tenantID, userID, conversationID string) error {
	return s.conversations.DeleteConversation(ctx, tenantID, userID, conversationID)
}

// resolveConversation loads the existing thread or starts a new one
func (s *Service) resolveConversation(ctx context.Context, tenantID, userID, conversationID, question string) (*models.Conversation, error) {
	if conversationID != "" {
		return s.conversations.GetConversation(ctx, tenantID, userID, conversationID)
	}

	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:        common.NewConversationID(),
		TenantID:  tenantID,
		UserID:    userID,
		Title:     titleFromQuestion(question),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversations.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

func titleFromQuestion(question string) string {
	runes := []rune(question)
	if len(runes) <= maxTitleLength {
		return question
	}
	return string(runes[:maxTitleLength]) + "..."
}
