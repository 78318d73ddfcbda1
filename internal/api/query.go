package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/studyhall/studyhall/internal/graph"
)

// maxQueryBodyBytes bounds the request body for query and ingest endpoints.
const maxQueryBodyBytes = 1 << 20 // 1 MiB

// GraphRunner executes one traversal of the agent graph.
type GraphRunner interface {
	Run(ctx context.Context, s graph.State) (*graph.State, error)
}

// queryRequest is the body of POST /api/v1/query.
type queryRequest struct {
	Query      string            `json:"query"`
	LearnerID  string            `json:"learner_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Adaptation string            `json:"adaptation,omitempty"`
	Documents  []requestDocument `json:"documents,omitempty"`
}

type requestDocument struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// queryResponse is the body of a successful query.
type queryResponse struct {
	Result         string `json:"result"`
	HandledBy      string `json:"handled_by"`
	SessionID      string `json:"session_id,omitempty"`
	ProfileSummary string `json:"profile_summary,omitempty"`
}

type queryHandler struct {
	runner GraphRunner
	logger *slog.Logger
}

// run serves POST /api/v1/query.
func (h *queryHandler) run(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQueryBodyBytes)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", h.logger)
		return
	}

	state := graph.State{
		Query:      req.Query,
		LearnerID:  req.LearnerID,
		SessionID:  req.SessionID,
		Adaptation: req.Adaptation,
	}
	for _, doc := range req.Documents {
		state.Documents = append(state.Documents, graph.Document{
			Content:  doc.Content,
			Metadata: doc.Metadata,
		})
	}

	out, err := h.runner.Run(r.Context(), state)
	if err != nil {
		if errors.Is(err, graph.ErrEmptyQuery) {
			WriteError(w, http.StatusBadRequest, "empty_query", "query must not be empty", h.logger)
			return
		}
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to process query", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, queryResponse{
		Result:         out.Result,
		HandledBy:      out.HandledBy,
		SessionID:      out.SessionID,
		ProfileSummary: out.ProfileSummary,
	})
}
