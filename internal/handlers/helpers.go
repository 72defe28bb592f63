package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

// TenantHeader carries the calling tenant's identifier
const TenantHeader = "X-Tenant-ID"

// UserHeader carries the calling user's identifier for chat endpoints
const UserHeader = "X-User-ID"

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteStorageError maps storage sentinels to HTTP status codes
func WriteStorageError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, interfaces.ErrDocumentNotFound),
		errors.Is(err, interfaces.ErrConversationNotFound),
		errors.Is(err, interfaces.ErrTenantNotFound):
		return WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, interfaces.ErrProcessingInProgress):
		return WriteError(w, http.StatusConflict, err.Error())
	default:
		return WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// RequireTenant extracts the tenant identifier from the request header.
// Returns false after writing the error response when the header is missing.
func RequireTenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID := strings.TrimSpace(r.Header.Get(TenantHeader))
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, "missing "+TenantHeader+" header")
		return "", false
	}
	return tenantID, true
}

// UserID returns the caller's user identifier, defaulting when absent
func UserID(r *http.Request) string {
	userID := strings.TrimSpace(r.Header.Get(UserHeader))
	if userID == "" {
		return "default"
	}
	return userID
}

// GetPaginationParams extracts offset/limit from the query string.
// Limit defaults to 20, capped at 100.
func GetPaginationParams(r *http.Request) (offset, limit int) {
	offset = 0
	limit = 20

	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return offset, limit
}
