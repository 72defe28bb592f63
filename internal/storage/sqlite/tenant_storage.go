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

// TenantStorage implements interfaces.TenantStorage over SQLite
type TenantStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

var _ interfaces.TenantStorage = (*TenantStorage)(nil)

// NewTenantStorage creates a new tenant storage instance
func NewTenantStorage(db *SQLiteDB, logger arbor.ILogger) *TenantStorage {
	return &TenantStorage{db: db, logger: logger}
}

// CreateTenant inserts a new tenant row
func (s *TenantStorage) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	_, err := s.db.DB().ExecContext(ctx,
		`INSERT INTO tenants (id, name, created_at) VALUES (?, ?, ?)`,
		tenant.ID, tenant.Name, tenant.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert tenant: %w", err)
	}
	return nil
}

// GetTenant returns a tenant by ID
func (s *TenantStorage) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	var tenant models.Tenant
	var createdAt int64
	err := s.db.DB().QueryRowContext(ctx,
		`SELECT id, name, created_at FROM tenants WHERE id = ?`, tenantID).
		Scan(&tenant.ID, &tenant.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	tenant.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &tenant, nil
}

// ListTenants returns all tenants, oldest first
func (s *TenantStorage) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT id, name, created_at FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		var tenant models.Tenant
		var createdAt int64
		if err := rows.Scan(&tenant.ID, &tenant.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenant.CreatedAt = time.Unix(createdAt, 0).UTC()
		tenants = append(tenants, &tenant)
	}
	return tenants, rows.Err()
}

// DeleteTenant removes a tenant; documents, chunks and conversations follow
// via FK cascade
func (s *TenantStorage) DeleteTenant(ctx context.Context, tenantID string) error {
	result, err := s.db.DB().ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return interfaces.ErrTenantNotFound
	}
	return nil
}
