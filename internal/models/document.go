package models

import (
	"time"
)

// DocumentStatus tracks a document through the processing pipeline
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document represents an uploaded file and its processing state.
// PageCount and ChunkCount are nil until processing computes them.
type Document struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	Filename     string         `json:"filename"`
	StorageKey   string         `json:"storage_key"`
	FileSize     int64          `json:"file_size"`
	MimeType     string         `json:"mime_type"`
	Status       DocumentStatus `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	PageCount    *int           `json:"page_count,omitempty"`
	ChunkCount   *int           `json:"chunk_count,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	ProcessedAt  *time.Time     `json:"processed_at,omitempty"`
}

// DocumentChunk is one embedded slice of a document's text.
// ChunkIndex is 0-based and contiguous across the whole document.
type DocumentChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	TenantID   string    `json:"tenant_id"`
	ChunkIndex int       `json:"chunk_index"`
	PageNumber int       `json:"page_number"`
	Text       string    `json:"text"`
	TokenCount int       `json:"token_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentListOptions filters tenant-scoped document listings
type DocumentListOptions struct {
	Status DocumentStatus
	Offset int
	Limit  int
}
