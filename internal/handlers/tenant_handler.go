package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/services/tenants"
)

// TenantHandler exposes tenant administration endpoints
type TenantHandler struct {
	tenants *tenants.Service
	logger  arbor.ILogger
}

// NewTenantHandler creates a tenant handler
func NewTenantHandler(tenantService *tenants.Service, logger arbor.ILogger) *TenantHandler {
	return &TenantHandler{
		tenants: tenantService,
		logger:  logger,
	}
}

type createTenantRequest struct {
	Name string `json:"name"`
}

// CreateHandler registers a new tenant.
// POST /api/tenants
func (h *TenantHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	tenant, err := h.tenants.Create(r.Context(), req.Name)
	if err != nil {
		WriteStorageError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, tenant)
}

// ListHandler returns all tenants.
// GET /api/tenants
func (h *TenantHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.tenants.List(r.Context())
	if err != nil {
		WriteStorageError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tenants": list,
		"count":   len(list),
	})
}

// GetHandler returns one tenant.
// GET /api/tenants/{id}
func (h *TenantHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.tenants.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteStorageError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tenant)
}

// DeleteHandler removes a tenant and every trace of its data.
// DELETE /api/tenants/{id}
func (h *TenantHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.tenants.Delete(r.Context(), r.PathValue("id")); err != nil {
		WriteStorageError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
