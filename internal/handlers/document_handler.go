package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/models"
	"github.com/quaestor-ai/quaestor/internal/services/documents"
	"github.com/quaestor-ai/quaestor/internal/services/pipeline"
)

// DocumentHandler exposes document upload, listing, and lifecycle endpoints
type DocumentHandler struct {
	docs      *documents.Service
	processor *pipeline.Processor
	logger    arbor.ILogger
}

// NewDocumentHandler creates a document handler
func NewDocumentHandler(docs *documents.Service, processor *pipeline.Processor, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		docs:      docs,
		processor: processor,
		logger:    logger,
	}
}

// UploadHandler accepts a multipart PDF upload and queues it for processing.
// POST /api/documents
func (h *DocumentHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := RequireTenant(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	mimeType := header.Header.Get("Content-Type")

	doc, err := h.docs.Upload(r.Context(), tenantID, header.Filename, mimeType, data)
	if err != nil {
		var validationErr *documents.ValidationError
		if errors.As(err, &validationErr) {
			WriteError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		WriteStorageError(w, err)
		return
	}

	// Processing runs detached; the client polls document status
	h.processor.ProcessAsync(tenantID, doc.ID, false)

	WriteJSON(w, http.StatusAccepted, doc)
}

// ListHandler returns the tenant's documents, optionally filtered by status.
// GET /api/documents?status=&offset=&limit=
func (h *DocumentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := RequireTenant(w, r)
	if !ok {
		return
	}

	offset, limit := GetPaginationParams(r)
	opts := models.DocumentListOptions{
		Status: models.DocumentStatus(r.URL.Query().Get("status")),
		Offset: offset,
		Limit:  limit,
	}

	docs, err := h.docs.List(r.Context(), tenantID, opts)
	if err != nil {
		WriteStorageError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	})
}

// GetHandler returns one document.
// GET /api/documents/{id}
func (h *DocumentHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := RequireTenant(w, r)
	if !ok {
		return
	}

	doc, err := h.docs.Get(r.Context(), tenantID, r.PathValue("id"))
	if err != nil {
		WriteStorageError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, doc)
}

// DeleteHandler removes a document and its derived data.
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := RequireTenant(w, r)
	if !ok {
		return
	}

	if err := h.docs.Delete(r.Context(), tenantID, r.PathValue("id")); err != nil {
		WriteStorageError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ReprocessHandler re-runs the pipeline for a document.
// POST /api/documents/{id}/reprocess
func (h *DocumentHandler) ReprocessHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := RequireTenant(w, r)
	if !ok {
		return
	}
	documentID := r.PathValue("id")

	doc, err := h.docs.Get(r.Context(), tenantID, documentID)
	if err != nil {
		WriteStorageError(w, err)
		return
	}
	if doc.Status == models.DocumentStatusProcessing {
		WriteError(w, http.StatusConflict, "document is already being processed")
		return
	}

	h.processor.ProcessAsync(tenantID, documentID, true)

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":      "started",
		"document_id": documentID,
	})
}
