package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
	"github.com/quaestor-ai/quaestor/internal/models"
)

// ValidationError rejects an upload before anything is stored
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid upload: %s", e.Reason)
}

// Service owns the document lifecycle outside of processing: upload,
// listing, and deletion across blob, vector, and relational storage.
type Service struct {
	store            interfaces.DocumentStorage
	blob             interfaces.BlobStorage
	index            interfaces.VectorIndex
	maxFileSize      int64
	allowedMimeTypes map[string]bool
	logger           arbor.ILogger
}

// NewService creates a document service
func NewService(
	store interfaces.DocumentStorage,
	blob interfaces.BlobStorage,
	index interfaces.VectorIndex,
	cfg *common.DocumentsConfig,
	logger arbor.ILogger,
) *Service {
	allowed := make(map[string]bool, len(cfg.AllowedMimeTypes))
	for _, mt := range cfg.AllowedMimeTypes {
		allowed[strings.ToLower(mt)] = true
	}
	return &Service{
		store:            store,
		blob:             blob,
		index:            index,
		maxFileSize:      cfg.MaxFileSize,
		allowedMimeTypes: allowed,
		logger:           logger,
	}
}

// Upload validates and stores a new document. The binary lands in blob
// storage first; the relational row is created in PENDING state for the
// pipeline to pick up.
func (s *Service) Upload(ctx context.Context, tenantID, filename, mimeType string, data []byte) (*models.Document, error) {
	if err := s.validate(filename, mimeType, data); err != nil {
		return nil, err
	}

	docID := common.NewDocumentID()
	storageKey := fmt.Sprintf("%s/%s.pdf", tenantID, docID)

	if err := s.blob.Save(ctx, storageKey, data); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:         docID,
		TenantID:   tenantID,
		Filename:   filename,
		StorageKey: storageKey,
		FileSize:   int64(len(data)),
		MimeType:   mimeType,
		Status:     models.DocumentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		// Roll back the blob so a failed insert leaves no orphan file
		if _, delErr := s.blob.Delete(ctx, storageKey); delErr != nil {
			s.logger.Warn().
				Err(delErr).
				Str("storage_key", storageKey).
				Msg("Failed to remove blob after create failure")
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.logger.Info().
		Str("document_id", docID).
		Str("tenant_id", tenantID).
		Str("filename", filename).
		Int("size", len(data)).
		Msg("Document uploaded")

	return doc, nil
}

// Get returns one document scoped to its tenant
func (s *Service) Get(ctx context.Context, tenantID, documentID string) (*models.Document, error) {
	return s.store.GetDocument(ctx, tenantID, documentID)
}

// List returns a tenant's documents, newest first
func (s *Service) List(ctx context.Context, tenantID string, opts models.DocumentListOptions) ([]*models.Document, error) {
	return s.store.ListDocuments(ctx, tenantID, opts)
}

// Delete removes a document everywhere: vector points, blob, then the
// relational row with its chunks. The vector and blob deletes are
// best-effort so a degraded backend cannot strand the row.
func (s *Service) Delete(ctx context.Context, tenantID, documentID string) error {
	doc, err := s.store.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return err
	}

	if err := s.index.DeleteByDocument(ctx, tenantID, documentID); err != nil {
		s.logger.Warn().
			Err(err).
			Str("document_id", documentID).
			Msg("Failed to delete vector points")
	}

	if _, err := s.blob.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Warn().
			Err(err).
			Str("storage_key", doc.StorageKey).
			Msg("Failed to delete stored file")
	}

	if err := s.store.DeleteDocument(ctx, tenantID, documentID); err != nil {
		return err
	}

	s.logger.Info().
		Str("document_id", documentID).
		Str("tenant_id", tenantID).
		Msg("Document deleted")

	return nil
}

func (s *Service) validate(filename, mimeType string, data []byte) error {
	if strings.TrimSpace(filename) == "" {
		return &ValidationError{Reason: "filename is required"}
	}
	if len(data) == 0 {
		return &ValidationError{Reason: "file is empty"}
	}
	if int64(len(data)) > s.maxFileSize {
		return &ValidationError{Reason: fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxFileSize)}
	}
	if !s.allowedMimeTypes[strings.ToLower(mimeType)] {
		return &ValidationError{Reason: fmt.Sprintf("unsupported content type %q", mimeType)}
	}
	return nil
}
