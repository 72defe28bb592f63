package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Tenants (administration)
	mux.HandleFunc("POST /api/tenants", s.app.TenantHandler.CreateHandler)
	mux.HandleFunc("GET /api/tenants", s.app.TenantHandler.ListHandler)
	mux.HandleFunc("GET /api/tenants/{id}", s.app.TenantHandler.GetHandler)
	mux.HandleFunc("DELETE /api/tenants/{id}", s.app.TenantHandler.DeleteHandler)

	// Documents
	mux.HandleFunc("POST /api/documents", s.app.DocumentHandler.UploadHandler)
	mux.HandleFunc("GET /api/documents", s.app.DocumentHandler.ListHandler)
	mux.HandleFunc("GET /api/documents/{id}", s.app.DocumentHandler.GetHandler)
	mux.HandleFunc("DELETE /api/documents/{id}", s.app.DocumentHandler.DeleteHandler)
	mux.HandleFunc("POST /api/documents/{id}/reprocess", s.app.DocumentHandler.ReprocessHandler)

	// Question answering
	mux.HandleFunc("POST /api/query", s.app.ChatHandler.QueryHandler)
	mux.HandleFunc("POST /api/chat", s.app.ChatHandler.ChatHandler)

	// Conversations
	mux.HandleFunc("GET /api/conversations", s.app.ChatHandler.ListConversationsHandler)
	mux.HandleFunc("GET /api/conversations/{id}", s.app.ChatHandler.GetConversationHandler)
	mux.HandleFunc("DELETE /api/conversations/{id}", s.app.ChatHandler.DeleteConversationHandler)

	// System
	mux.HandleFunc("GET /api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("GET /api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
