package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/studyhall/internal/learner"
)

// SessionStore lists and closes tutoring sessions.
type SessionStore interface {
	Sessions(ctx context.Context, learnerID uuid.UUID, limit, offset int32) ([]learner.Session, error)
	EndSession(ctx context.Context, sessionID uuid.UUID, summary map[string]any) error
}

type sessionJSON struct {
	ID        string    `json:"id"`
	LearnerID string    `json:"learner_id"`
	Topic     string    `json:"topic,omitempty"`
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`
}

type sessionsHandler struct {
	store  SessionStore
	logger *slog.Logger
}

// list serves GET /api/v1/learners/{id}/sessions.
func (h *sessionsHandler) list(w http.ResponseWriter, r *http.Request) {
	learnerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_learner_id", "learner id must be a UUID", h.logger)
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	sessions, err := h.store.Sessions(r.Context(), learnerID, int32(limit), int32(offset))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list sessions", h.logger)
		return
	}

	out := make([]sessionJSON, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionJSON{
			ID:        s.ID.String(),
			LearnerID: s.LearnerID.String(),
			Topic:     s.Topic,
			Active:    s.Active,
			StartedAt: s.StartedAt,
			EndedAt:   s.EndedAt,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

// end serves POST /api/v1/sessions/{id}/end. The optional body is a JSON
// performance summary stored with the session.
func (h *sessionsHandler) end(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_session_id", "session id must be a UUID", h.logger)
		return
	}

	var summary map[string]any
	if r.Body != nil {
		// Absent or empty bodies are fine; only malformed JSON is rejected.
		if err := json.NewDecoder(r.Body).Decode(&summary); err != nil && !errors.Is(err, io.EOF) {
			WriteError(w, http.StatusBadRequest, "invalid_body", "summary must be valid JSON", h.logger)
			return
		}
	}

	if err := h.store.EndSession(r.Context(), sessionID, summary); err != nil {
		WriteError(w, http.StatusNotFound, "end_failed", "session not found or already ended", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

// queryInt reads an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
