package interfaces

import (
	"context"
	"errors"

	"github.com/quaestor-ai/quaestor/internal/models"
)

// Storage errors
var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrTenantNotFound       = errors.New("tenant not found")
	// ErrProcessingInProgress is returned when a document is claimed for
	// processing while another run already holds it.
	ErrProcessingInProgress = errors.New("document is already being processed")
)

// DocumentStorage persists documents and their chunks. All reads and writes
// are tenant-scoped; a document is never visible outside its tenant.
type DocumentStorage interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, tenantID, documentID string) (*models.Document, error)
	ListDocuments(ctx context.Context, tenantID string, opts models.DocumentListOptions) ([]*models.Document, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	DeleteDocument(ctx context.Context, tenantID, documentID string) error

	// ClaimForProcessing atomically moves a pending or failed document to
	// processing. Returns ErrProcessingInProgress when the document is
	// already processing, ErrDocumentNotFound when it does not exist.
	ClaimForProcessing(ctx context.Context, tenantID, documentID string) error

	SaveChunks(ctx context.Context, chunks []*models.DocumentChunk) error
	GetChunks(ctx context.Context, tenantID, documentID string) ([]*models.DocumentChunk, error)
	DeleteChunks(ctx context.Context, tenantID, documentID string) (int64, error)

	// ListByStatus returns documents across tenants in the given status,
	// oldest first. Used by the scheduled sweep.
	ListByStatus(ctx context.Context, status models.DocumentStatus, limit int) ([]*models.Document, error)
}

// ConversationStorage persists chat threads and their messages
type ConversationStorage interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, tenantID, userID, conversationID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, tenantID, userID string, offset, limit int) ([]*models.Conversation, error)
	TouchConversation(ctx context.Context, tenantID, conversationID string) error
	DeleteConversation(ctx context.Context, tenantID, userID, conversationID string) error

	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, tenantID, conversationID string) ([]*models.Message, error)
}

// TenantStorage persists tenant records
type TenantStorage interface {
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	DeleteTenant(ctx context.Context, tenantID string) error
}

// StorageManager aggregates the relational stores behind one connection
type StorageManager interface {
	Documents() DocumentStorage
	Conversations() ConversationStorage
	Tenants() TenantStorage
	Close() error
}
