package common

import (
	"github.com/google/uuid"
)

// NewDocumentID generates a unique document ID with the "doc_" prefix
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewChunkID generates a unique chunk ID. Chunk IDs double as vector point
// IDs, and Qdrant only accepts bare UUIDs or unsigned integers there.
func NewChunkID() string {
	return uuid.New().String()
}

// NewConversationID generates a unique conversation ID with the "conv_" prefix
func NewConversationID() string {
	return "conv_" + uuid.New().String()
}

// NewMessageID generates a unique message ID with the "msg_" prefix
func NewMessageID() string {
	return "msg_" + uuid.New().String()
}

// NewTenantID generates a tenant ID. Tenant IDs are bare UUIDs because the
// vector namespace name is derived from them.
func NewTenantID() string {
	return uuid.New().String()
}
