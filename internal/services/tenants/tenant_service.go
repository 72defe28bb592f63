package tenants

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

// Service manages tenant lifecycle. Creating a tenant provisions its vector
// namespace; deleting one tears down every trace across all three stores.
type Service struct {
	store  interfaces.TenantStorage
	index  interfaces.VectorIndex
	blob   interfaces.BlobStorage
	logger arbor.ILogger
}

// NewService creates a tenant service
func NewService(
	store interfaces.TenantStorage,
	index interfaces.VectorIndex,
	blob interfaces.BlobStorage,
	logger arbor.ILogger,
) *Service {
	return &Service{
		store:  store,
		index:  index,
		blob:   blob,
		logger: logger,
	}
}

// Create registers a new tenant and provisions its vector namespace
func (s *Service) Create(ctx context.Context, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}

	tenant := &models.Tenant{
		ID:        common.NewTenantID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateTenant(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	// Provisioning the namespace now keeps the first upload fast. A failure
	// here is recoverable: the index self-heals on first write.
	if err := s.index.EnsureNamespace(ctx, tenant.ID); err != nil {
		s.logger.Warn().
			Err(err).
			Str("tenant_id", tenant.ID).
			Msg("Failed to provision vector namespace")
	}

	s.logger.Info().
		Str("tenant_id", tenant.ID).
		Str("name", name).
		Msg("Tenant created")

	return tenant, nil
}

// Get returns one tenant
func (s *Service) Get(ctx context.Context, tenantID string) (*models.Tenant, error) {
	return s.store.GetTenant(ctx, tenantID)
}

// List returns all tenants
func (s *Service) List(ctx context.Context) ([]*models.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Delete removes a tenant and all of its data: the vector namespace, stored
// files, and the relational rows with their cascaded documents, chunks,
// conversations, and messages.
func (s *Service) Delete(ctx context.Context, tenantID string) error {
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return err
	}

	if err := s.index.DeleteNamespace(ctx, tenantID); err != nil {
		s.logger.Warn().
			Err(err).
			Str("tenant_id", tenantID).
			Msg("Failed to delete vector namespace")
	}

	if err := s.blob.DeletePrefix(ctx, tenantID); err != nil {
		s.logger.Warn().
			Err(err).
			Str("tenant_id", tenantID).
			Msg("Failed to delete stored files")
	}

	if err := s.store.DeleteTenant(ctx, tenantID); err != nil {
		return err
	}

	s.logger.Info().
		Str("tenant_id", tenantID).
		Msg("Tenant deleted")

	return nil
}
