package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/interfaces"
	"github.com/quaestor-ai/quaestor/internal/models"
)

// ConversationStorage implements interfaces.ConversationStorage over SQLite
type ConversationStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

var _ interfaces.ConversationStorage = (*ConversationStorage)(nil)

// NewConversationStorage creates a new conversation storage instance
func NewConversationStorage(db *SQLiteDB, logger arbor.ILogger) *ConversationStorage {
	return &ConversationStorage{db: db, logger: logger}
}

// CreateConversation inserts a new conversation row
func (s *ConversationStorage) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	_, err := s.db.DB().ExecContext(ctx,
		`INSERT INTO conversations (id, tenant_id, user_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.TenantID, conv.UserID, conv.Title,
		conv.CreatedAt.Unix(), conv.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// GetConversation returns a conversation scoped to tenant and user
func (s *ConversationStorage) GetConversation(ctx context.Context, tenantID, userID, conversationID string) (*models.Conversation, error) {
	row := s.db.DB().QueryRowContext(ctx,
		`SELECT id, tenant_id, user_id, title, created_at, updated_at
		FROM conversations WHERE id = ? AND tenant_id = ? AND user_id = ?`,
		conversationID, tenantID, userID)

	conv, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns a user's conversations, most recently active first
func (s *ConversationStorage) ListConversations(ctx context.Context, tenantID, userID string, offset, limit int) ([]*models.Conversation, error) {
	query := `SELECT id, tenant_id, user_id, title, created_at, updated_at
		FROM conversations WHERE tenant_id = ? AND user_id = ? ORDER BY updated_at DESC`
	args := []interface{}{tenantID, userID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var convs []*models.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// TouchConversation bumps the conversation's updated_at to now
func (s *ConversationStorage) TouchConversation(ctx context.Context, tenantID, conversationID string) error {
	_, err := s.db.DB().ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ? AND tenant_id = ?`,
		time.Now().UTC().Unix(), conversationID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

// DeleteConversation removes a conversation; messages follow via FK cascade
func (s *ConversationStorage) DeleteConversation(ctx context.Context, tenantID, userID, conversationID string) error {
	result, err := s.db.DB().ExecContext(ctx,
		`DELETE FROM conversations WHERE id = ? AND tenant_id = ? AND user_id = ?`,
		conversationID, tenantID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return interfaces.ErrConversationNotFound
	}
	return nil
}

// CreateMessage appends an immutable message to a conversation
func (s *ConversationStorage) CreateMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.db.DB().ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, citations, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.CitationsJSON, msg.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListMessages returns a conversation's messages in chronological order.
// The join keeps a tenant from reading another tenant's thread by ID.
func (s *ConversationStorage) ListMessages(ctx context.Context, tenantID, conversationID string) ([]*models.Message, error) {
	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT m.id, m.conversation_id, m.role, m.content, m.citations, m.created_at
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.conversation_id = ? AND c.tenant_id = ?
		ORDER BY m.created_at, m.id`,
		conversationID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		var msg models.Message
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content,
			&msg.CitationsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.CreatedAt = time.Unix(createdAt, 0).UTC()
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var conv models.Conversation
	var createdAt, updatedAt int64
	if err := row.Scan(&conv.ID, &conv.TenantID, &conv.UserID, &conv.Title,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	conv.CreatedAt = time.Unix(createdAt, 0).UTC()
	conv.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &conv, nil
}
