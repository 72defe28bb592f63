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

// DocumentStorage implements interfaces.DocumentStorage over SQLite
type DocumentStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

var _ interfaces.DocumentStorage = (*DocumentStorage)(nil)

// NewDocumentStorage creates a new document storage instance
func NewDocumentStorage(db *SQLiteDB, logger arbor.ILogger) *DocumentStorage {
	return &DocumentStorage{db: db, logger: logger}
}

const documentColumns = `id, tenant_id, filename, storage_key, file_size, mime_type,
	status, error_message, page_count, chunk_count, created_at, updated_at, processed_at`

// CreateDocument inserts a new document row
func (s *DocumentStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	query := `INSERT INTO documents (` + documentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.DB().ExecContext(ctx, query,
		doc.ID, doc.TenantID, doc.Filename, doc.StorageKey, doc.FileSize, doc.MimeType,
		string(doc.Status), doc.ErrorMessage, nullableInt(doc.PageCount), nullableInt(doc.ChunkCount),
		doc.CreatedAt.Unix(), doc.UpdatedAt.Unix(), nullableTime(doc.ProcessedAt))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetDocument returns a tenant's document by ID
func (s *DocumentStorage) GetDocument(ctx context.Context, tenantID, documentID string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ? AND tenant_id = ?`

	row := s.db.DB().QueryRowContext(ctx, query, documentID, tenantID)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns a tenant's documents, newest first
func (s *DocumentStorage) ListDocuments(ctx context.Context, tenantID string, opts models.DocumentListOptions) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE tenant_id = ?`
	args := []interface{}{tenantID}

	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// UpdateDocument writes processing state back to an existing row
func (s *DocumentStorage) UpdateDocument(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()

	query := `UPDATE documents SET filename = ?, storage_key = ?, file_size = ?, mime_type = ?,
		status = ?, error_message = ?, page_count = ?, chunk_count = ?, updated_at = ?, processed_at = ?
		WHERE id = ? AND tenant_id = ?`

	result, err := s.db.DB().ExecContext(ctx, query,
		doc.Filename, doc.StorageKey, doc.FileSize, doc.MimeType,
		string(doc.Status), doc.ErrorMessage, nullableInt(doc.PageCount), nullableInt(doc.ChunkCount),
		doc.UpdatedAt.Unix(), nullableTime(doc.ProcessedAt),
		doc.ID, doc.TenantID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return interfaces.ErrDocumentNotFound
	}
	return nil
}

// DeleteDocument removes a document; chunks follow via FK cascade
func (s *DocumentStorage) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	result, err := s.db.DB().ExecContext(ctx,
		`DELETE FROM documents WHERE id = ? AND tenant_id = ?`, documentID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return interfaces.ErrDocumentNotFound
	}
	return nil
}

// ClaimForProcessing atomically transitions pending/failed -> processing.
// The conditional update is the guard against two concurrent runs picking up
// the same document.
func (s *DocumentStorage) ClaimForProcessing(ctx context.Context, tenantID, documentID string) error {
	query := `UPDATE documents SET status = ?, error_message = '', updated_at = ?
		WHERE id = ? AND tenant_id = ? AND status IN (?, ?)`

	result, err := s.db.DB().ExecContext(ctx, query,
		string(models.DocumentStatusProcessing), time.Now().UTC().Unix(),
		documentID, tenantID,
		string(models.DocumentStatusPending), string(models.DocumentStatusFailed))
	if err != nil {
		return fmt.Errorf("failed to claim document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check claim result: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Distinguish "missing" from "already claimed"
	var status string
	err = s.db.DB().QueryRowContext(ctx,
		`SELECT status FROM documents WHERE id = ? AND tenant_id = ?`, documentID, tenantID).Scan(&status)
	if err == sql.ErrNoRows {
		return interfaces.ErrDocumentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect document status: %w", err)
	}
	return interfaces.ErrProcessingInProgress
}

// SaveChunks inserts chunk rows in a single transaction
func (s *DocumentStorage) SaveChunks(ctx context.Context, chunks []*models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO document_chunks
		(id, document_id, tenant_id, chunk_index, page_number, text, token_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		_, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.DocumentID, chunk.TenantID, chunk.ChunkIndex,
			chunk.PageNumber, chunk.Text, chunk.TokenCount, chunk.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	return tx.Commit()
}

// GetChunks returns a document's chunks in index order
func (s *DocumentStorage) GetChunks(ctx context.Context, tenantID, documentID string) ([]*models.DocumentChunk, error) {
	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT id, document_id, tenant_id, chunk_index, page_number, text, token_count, created_at
		FROM document_chunks WHERE document_id = ? AND tenant_id = ? ORDER BY chunk_index`,
		documentID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*models.DocumentChunk
	for rows.Next() {
		var chunk models.DocumentChunk
		var createdAt int64
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.TenantID, &chunk.ChunkIndex,
			&chunk.PageNumber, &chunk.Text, &chunk.TokenCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunk.CreatedAt = time.Unix(createdAt, 0).UTC()
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// DeleteChunks removes all chunk rows for a document
func (s *DocumentStorage) DeleteChunks(ctx context.Context, tenantID, documentID string) (int64, error) {
	result, err := s.db.DB().ExecContext(ctx,
		`DELETE FROM document_chunks WHERE document_id = ? AND tenant_id = ?`, documentID, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}
	return result.RowsAffected()
}

// ListByStatus returns documents across tenants in a status, oldest first
func (s *DocumentStorage) ListByStatus(ctx context.Context, status models.DocumentStatus, limit int) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE status = ? ORDER BY created_at`
	args := []interface{}{string(status)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents by status: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var status string
	var pageCount, chunkCount sql.NullInt64
	var createdAt, updatedAt int64
	var processedAt sql.NullInt64

	err := row.Scan(&doc.ID, &doc.TenantID, &doc.Filename, &doc.StorageKey, &doc.FileSize,
		&doc.MimeType, &status, &doc.ErrorMessage, &pageCount, &chunkCount,
		&createdAt, &updatedAt, &processedAt)
	if err != nil {
		return nil, err
	}

	doc.Status = models.DocumentStatus(status)
	doc.CreatedAt = time.Unix(createdAt, 0).UTC()
	doc.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if pageCount.Valid {
		v := int(pageCount.Int64)
		doc.PageCount = &v
	}
	if chunkCount.Valid {
		v := int(chunkCount.Int64)
		doc.ChunkCount = &v
	}
	if processedAt.Valid {
		t := time.Unix(processedAt.Int64, 0).UTC()
		doc.ProcessedAt = &t
	}
	return &doc, nil
}

func collectDocuments(rows *sql.Rows) ([]*models.Document, error) {
	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}
