package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/services/chat"
	"github.com/quaestor-ai/quaestor/internal/services/rag"
)

// ChatHandler exposes the question-answering and conversation endpoints
type ChatHandler struct {
	chat   *chat.Service
	engine chat.QueryEngine
	logger arbor.ILogger
}

// NewChatHandler creates a chat handler
func NewChatHandler(chatService *chat.Service, engine chat.QueryEngine, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		chat:   chatService,
		engine: engine,
		logger: logger,
	}
}

type chatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

type queryRequest struct {
	Question string `json:"question"`
}

// ChatHandler runs one conversational turn.
// POST /api/chat
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := RequireTenant(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := h.chat.SendMessage(r.Context(), tenantID, UserID(r), req.ConversationID, req.Message)
	if err != nil {
		var queryErr *rag.QueryError
		if errors.As(err, &queryErr) {
			WriteError(w, http.StatusBadGateway, queryErr.Error())
			return
		}
		WriteStorageError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}

// QueryHandler answers a single question without conversation state.
// POST /api/query
func (h *ChatHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := RequireTenant(w, r)
	if !ok {
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		WriteError(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := h.engine.Query(r.Context(), tenantID, req.Question)
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// ListConversationsHandler returns the caller's conversations.
// GET /api/conversations
func (h *ChatHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := RequireTenant(w, r)
	if !ok {
		return
	}

	offset, limit := GetPaginationParams(r)
	conversations, err := h.chat.ListConversations(r.Context(), tenantID, UserID(r), offset, limit)
	if err != nil {
		WriteStorageError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// GetConversationHandler returns one conversation with its transcript.
// GET /api/conversations/{id}
func (h *ChatHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := RequireTenant(w, r)
	if !ok {
		return
	}
	conversationID := r.PathValue("id")

	conv, err := h.chat.GetConversation(r.Context(), tenantID, UserID(r), conversationID)
	if err != nil {
		WriteStorageError(w, err)
		return
	}

	messages, err := h.chat.ListMessages(r.Context(), tenantID, UserID(r), conversationID)
	if err != nil {
		WriteStorageError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"conversation": conv,
		"messages":     messages,
	})
}

// DeleteConversationHandler removes a conversation.
// DELETE /api/conversations/{id}
func (h *ChatHandler) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := RequireTenant(w, r)
	if !ok {
		return
	}

	if err := h.chat.DeleteConversation(r.Context(), tenantID, UserID(r), r.PathValue("id")); err != nil {
		WriteStorageError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
