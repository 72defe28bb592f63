package sqlite

import (
	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

// Manager implements the StorageManager interface
type Manager struct {
	db            *SQLiteDB
	documents     interfaces.DocumentStorage
	conversations interfaces.ConversationStorage
	tenants       interfaces.TenantStorage
	logger        arbor.ILogger
}

// NewManager creates a new SQLite storage manager
func NewManager(logger arbor.ILogger, config *common.SQLiteConfig) (interfaces.StorageManager, error) {
	db, err := NewSQLiteDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:            db,
		documents:     NewDocumentStorage(db, logger),
		conversations: NewConversationStorage(db, logger),
		tenants:       NewTenantStorage(db, logger),
		logger:        logger,
	}, nil
}

// Documents returns the document storage interface
func (m *Manager) Documents() interfaces.DocumentStorage {
	return m.documents
}

// Conversations returns the conversation storage interface
func (m *Manager) Conversations() interfaces.ConversationStorage {
	return m.conversations
}

// Tenants returns the tenant storage interface
func (m *Manager) Tenants() interfaces.TenantStorage {
	return m.tenants
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
