package tenants

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
	"github.com/quaestor-ai/quaestor/internal/storage/blob"
	"github.com/quaestor-ai/quaestor/internal/storage/sqlite"
)

type fakeIndex struct {
	ensured []string
	deleted []string
}

func (f *fakeIndex) EnsureNamespace(ctx context.Context, tenantID string) error {
	f.ensured = append(f.ensured, tenantID)
	return nil
}
func (f *fakeIndex) Upsert(ctx context.Context, tenantID string, points []interfaces.VectorPoint) error {
	return nil
}
func (f *fakeIndex) Search(ctx context.Context, tenantID string, vector []float32, limit int, threshold float32) ([]interfaces.VectorMatch, error) {
	return nil, nil
}
func (f *fakeIndex) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	return nil
}
func (f *fakeIndex) DeleteNamespace(ctx context.Context, tenantID string) error {
	f.deleted = append(f.deleted, tenantID)
	return nil
}

type fixture struct {
	svc   *Service
	docs  interfaces.DocumentStorage
	blob  interfaces.BlobStorage
	index *fakeIndex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := common.GetLogger()
	db, err := sqlite.NewSQLiteDB(logger, &common.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	blobStore, err := blob.NewFilesystemStorage(t.TempDir(), logger)
	require.NoError(t, err)
	index := &fakeIndex{}

	return &fixture{
		svc:   NewService(sqlite.NewTenantStorage(db, logger), index, blobStore, logger),
		docs:  sqlite.NewDocumentStorage(db, logger),
		blob:  blobStore,
		index: index,
	}
}

func TestCreate_ProvisionsNamespace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tenant, err := f.svc.Create(ctx, "Acme Corp")
	require.NoError(t, err)
	assert.NotEmpty(t, tenant.ID)
	assert.Equal(t, "Acme Corp", tenant.Name)
	assert.Contains(t, f.index.ensured, tenant.ID)

	stored, err := f.svc.Get(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, stored.ID)
}

func TestCreate_RejectsEmptyName(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "   ")
	assert.Error(t, err)
	assert.Empty(t, f.index.ensured)
}

func TestDelete_RemovesAllTenantData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tenant, err := f.svc.Create(ctx, "Acme Corp")
	require.NoError(t, err)

	now := time.Now().UTC()
	doc := &models.Document{
		ID:         common.NewDocumentID(),
		TenantID:   tenant.ID,
		Filename:   "report.pdf",
		StorageKey: tenant.ID + "/report.pdf",
		Status:     models.DocumentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.docs.CreateDocument(ctx, doc))
	require.NoError(t, f.blob.Save(ctx, doc.StorageKey, []byte("data")))

	require.NoError(t, f.svc.Delete(ctx, tenant.ID))

	_, err = f.svc.Get(ctx, tenant.ID)
	assert.ErrorIs(t, err, interfaces.ErrTenantNotFound)

	// Relational cascade removed the document
	_, err = f.docs.GetDocument(ctx, tenant.ID, doc.ID)
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)

	// Files and vector namespace are gone
	exists, err := f.blob.Exists(ctx, doc.StorageKey)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Contains(t, f.index.deleted, tenant.ID)
}

func TestDelete_MissingTenant(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Delete(context.Background(), "no-such-tenant")
	assert.ErrorIs(t, err, interfaces.ErrTenantNotFound)
	assert.Empty(t, f.index.deleted)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "First")
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "Second")
	require.NoError(t, err)

	tenants, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tenants, 2)
}
