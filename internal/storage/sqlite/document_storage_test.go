package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
	"github.com/quaestor-ai/quaestor/internal/models"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()

	db, err := NewSQLiteDB(common.GetLogger(), &common.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTenant(t *testing.T, db *SQLiteDB, tenantID string) {
	t.Helper()

	tenants := NewTenantStorage(db, common.GetLogger())
	err := tenants.CreateTenant(context.Background(), &models.Tenant{
		ID:        tenantID,
		Name:      "tenant " + tenantID,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func newTestDocument(tenantID string) *models.Document {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Document{
		ID:         common.NewDocumentID(),
		TenantID:   tenantID,
		Filename:   "report.pdf",
		StorageKey: tenantID + "/report.pdf",
		FileSize:   2048,
		MimeType:   "application/pdf",
		Status:     models.DocumentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestDocumentStorage_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	seedTenant(t, db, "tenant-a")
	storage := NewDocumentStorage(db, common.GetLogger())
	ctx := context.Background()

	doc := newTestDocument("tenant-a")
	require.NoError(t, storage.CreateDocument(ctx, doc))

	got, err := storage.GetDocument(ctx, "tenant-a", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, models.DocumentStatusPending, got.Status)
	assert.Nil(t, got.PageCount)
	assert.Nil(t, got.ProcessedAt)
}

func TestDocumentStorage_GetIsTenantScoped(t *testing.T) {
	db := newTestDB(t)
	seedTenant(t, db, "tenant-a")
	seedTenant(t, db, "tenant-b")
	storage := NewDocumentStorage(db, common.GetLogger())
	ctx := context.Background()

	doc := newTestDocument("tenant-a")
	require.NoError(t, storage.CreateDocument(ctx, doc))

	_, err := storage.GetDocument(ctx, "tenant-b", doc.ID)
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)
}

func TestDocumentStorage_UpdateRoundTrip(t *testing.T) {
	db := newTestDB(t)
	seedTenant(t, db, "tenant-a")
	storage := NewDocumentStorage(db, common.GetLogger())
	ctx := context.Background()

	doc := newTestDocument("tenant-a")
	require.NoError(t, storage.CreateDocument(ctx, doc))

	pages, chunks := 12, 40
	processedAt := time.Now().UTC().Truncate(time.Second)
	doc.Status = models.DocumentStatusCompleted
	doc.PageCount = &pages
	doc.ChunkCount = &chunks
	doc.ProcessedAt = &processedAt
	require.NoError(t, storage.UpdateDocument(ctx, doc))

	got, err := storage.GetDocument(ctx, "tenant-a", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusCompleted, got.Status)
	require.NotNil(t, got.PageCount)
	assert.Equal(t, 12, *got.PageCount)
	require.NotNil(t, got.ChunkCount)
	assert.Equal(t, 40, *got.ChunkCount)
	require.NotNil(t, got.ProcessedAt)
	assert.Equal(t, processedAt.Unix(), got.ProcessedAt.Unix())
}

func TestDocumentStorage_ClaimForProcessing(t *testing.T) {
	db := newTestDB(t)
	seedTenant(t, db, "tenant-a")
	storage := NewDocumentStorage(db, common.GetLogger())
	ctx := context.Background()

	doc := newTestDocument("tenant-a")
	require.NoError(t, storage.CreateDocument(ctx, doc))

	// First claim succeeds
	require.NoError(t, storage.ClaimForProcessing(ctx, "tenant-a", doc.ID))

	got, err := storage.GetDocument(ctx, "tenant-a", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusProcessing, got.Status)

	// Second claim is rejected while processing
	err = storage.ClaimForProcessing(ctx, "tenant-a", doc.ID)
	assert.ErrorIs(t, err, interfaces.ErrProcessingInProgress)

	// A failed document can be claimed again
	got.Status = models.DocumentStatusFailed
	require.NoError(t, storage.UpdateDocument(ctx, got))
	assert.NoError(t, storage.ClaimForProcessing(ctx, "tenant-a", doc.ID))
}

func TestDocumentStorage_ClaimMissingDocument(t *testing.T) {
	db := newTestDB(t)
	seedTenant(t, db, "tenant-a")
	storage := NewDocumentStorage(db, common.GetLogger())

	err := storage.ClaimForProcessing(context.Background(), "tenant-a", "doc_missing")
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)
}

func TestDocumentStorage_ChunkLifecycle(t *testing.T) {
	db := newTestDB(t)
	seedTenant(t, db, "tenant-a")
	storage := NewDocumentStorage(db, common.GetLogger())
	ctx := context.Background()

	doc := newTestDocument("tenant-a")
	require.NoError(t, storage.CreateDocument(ctx, doc))

	now := time.Now().UTC()
	var chunks []*models.DocumentChunk
	for i := 0; i < 3; i++ {
		chunks = append(chunks, &models.DocumentChunk{
			ID:         common.NewChunkID(),
			DocumentID: doc.ID,
			TenantID:   "tenant-a",
			ChunkIndex: i,
			PageNumber: i + 1,
			Text:       "chunk text",
			TokenCount: 3,
			CreatedAt:  now,
		})
	}
	require.NoError(t, storage.SaveChunks(ctx, chunks))

	got, err := storage.GetChunks(ctx, "tenant-a", doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, chunk := range got {
		assert.Equal(t, i, chunk.ChunkIndex)
	}

	deleted, err := storage.DeleteChunks(ctx, "tenant-a", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	got, err = storage.GetChunks(ctx, "tenant-a", doc.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDocumentStorage_DeleteCascadesChunks(t *testing.T) {
	db := newTestDB(t)
	seedTenant(t, db, "tenant-a")
	storage := NewDocumentStorage(db, common.GetLogger())
	ctx := context.Background()

	doc := newTestDocument("tenant-a")
	require.NoError(t, storage.CreateDocument(ctx, doc))
	require.NoError(t, storage.SaveChunks(ctx, []*models.DocumentChunk{{
		ID:         common.NewChunkID(),
		DocumentID: doc.ID,
		TenantID:   "tenant-a",
		ChunkIndex: 0,
		PageNumber: 1,
		Text:       "text",
		CreatedAt:  time.Now().UTC(),
	}}))

	require.NoError(t, storage.DeleteDocument(ctx, "tenant-a", doc.ID))

	var count int
	err := db.DB().QueryRow(`SELECT COUNT(*) FROM document_chunks WHERE document_id = ?`, doc.ID).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDocumentStorage_ListByStatus(t *testing.T) {
	db := newTestDB(t)
	seedTenant(t, db, "tenant-a")
	seedTenant(t, db, "tenant-b")
	storage := NewDocumentStorage(db, common.GetLogger())
	ctx := context.Background()

	docA := newTestDocument("tenant-a")
	docB := newTestDocument("tenant-b")
	docDone := newTestDocument("tenant-a")
	docDone.Status = models.DocumentStatusCompleted
	require.NoError(t, storage.CreateDocument(ctx, docA))
	require.NoError(t, storage.CreateDocument(ctx, docB))
	require.NoError(t, storage.CreateDocument(ctx, docDone))

	pending, err := storage.ListByStatus(ctx, models.DocumentStatusPending, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestDocumentStorage_ListDocumentsFilter(t *testing.T) {
	db := newTestDB(t)
	seedTenant(t, db, "tenant-a")
	storage := NewDocumentStorage(db, common.GetLogger())
	ctx := context.Background()

	doc1 := newTestDocument("tenant-a")
	doc2 := newTestDocument("tenant-a")
	doc2.Status = models.DocumentStatusCompleted
	require.NoError(t, storage.CreateDocument(ctx, doc1))
	require.NoError(t, storage.CreateDocument(ctx, doc2))

	all, err := storage.ListDocuments(ctx, "tenant-a", models.DocumentListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed, err := storage.ListDocuments(ctx, "tenant-a", models.DocumentListOptions{
		Status: models.DocumentStatusCompleted,
	})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, doc2.ID, completed[0].ID)
}
