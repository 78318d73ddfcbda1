package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Ingester stores documents as embedded chunks.
type Ingester interface {
	IngestDocument(ctx context.Context, documentID, content string, metadata map[string]string) (string, int, error)
	DeleteDocument(ctx context.Context, documentID string) (int64, error)
}

type ingestRequest struct {
	DocumentID string            `json:"document_id,omitempty"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type ingestResponse struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

type documentsHandler struct {
	store  Ingester
	logger *slog.Logger
}

// ingest serves POST /api/v1/documents.
func (h *documentsHandler) ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQueryBodyBytes)

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", h.logger)
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		WriteError(w, http.StatusBadRequest, "empty_content", "document content must not be empty", h.logger)
		return
	}

	documentID, chunks, err := h.store.IngestDocument(r.Context(), req.DocumentID, req.Content, req.Metadata)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "ingest_failed", "failed to ingest document", h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, ingestResponse{DocumentID: documentID, Chunks: chunks})
}

// remove serves DELETE /api/v1/documents/{id}.
func (h *documentsHandler) remove(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	if documentID == "" {
		WriteError(w, http.StatusBadRequest, "missing_id", "document id is required", h.logger)
		return
	}

	deleted, err := h.store.DeleteDocument(r.Context(), documentID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "delete_failed", "failed to delete document", h.logger)
		return
	}
	if deleted == 0 {
		WriteError(w, http.StatusNotFound, "not_found", "no chunks for that document", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int64{"deleted_chunks": deleted})
}
