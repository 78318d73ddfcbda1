package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/studyhall/studyhall/internal/graph"
	"github.com/studyhall/studyhall/internal/learner"
)

type fakeRunner struct {
	out  *graph.State
	err  error
	last graph.State
}

func (f *fakeRunner) Run(_ context.Context, s graph.State) (*graph.State, error) {
	f.last = s
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	s.Result = "ok"
	s.HandledBy = "qa"
	return &s, nil
}

type fakeIngester struct {
	chunks int
	err    error
}

func (f *fakeIngester) IngestDocument(_ context.Context, documentID, _ string, _ map[string]string) (string, int, error) {
	if documentID == "" {
		documentID = "generated-id"
	}
	return documentID, f.chunks, f.err
}

func (f *fakeIngester) DeleteDocument(_ context.Context, _ string) (int64, error) {
	return int64(f.chunks), f.err
}

type fakeSessions struct {
	sessions []learner.Session
	ended    []uuid.UUID
}

func (f *fakeSessions) Sessions(_ context.Context, _ uuid.UUID, _, _ int32) ([]learner.Session, error) {
	return f.sessions, nil
}

func (f *fakeSessions) EndSession(_ context.Context, id uuid.UUID, _ map[string]any) error {
	f.ended = append(f.ended, id)
	return nil
}

func newTestServer(t *testing.T, runner GraphRunner, ingester Ingester, sessions SessionStore) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Logger:      slog.New(slog.DiscardHandler),
		Graph:       runner,
		Knowledge:   ingester,
		Learners:    sessions,
		CORSOrigins: []string{"http://localhost:3000"},
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv
}

func TestQueryEndpoint(t *testing.T) {
	runner := &fakeRunner{}
	srv := newTestServer(t, runner, nil, nil)

	body := `{"query":"what is osmosis","learner_id":"guest-1","documents":[{"content":"osmosis is diffusion of water","metadata":{"language":"English"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	var resp queryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.Result != "ok" || resp.HandledBy != "qa" {
		t.Errorf("response = %+v", resp)
	}

	if runner.last.Query != "what is osmosis" {
		t.Errorf("runner received query %q", runner.last.Query)
	}
	if len(runner.last.Documents) != 1 || runner.last.Documents[0].Language() != "English" {
		t.Errorf("runner received documents %+v", runner.last.Documents)
	}
}

func TestQueryEndpointEmptyQuery(t *testing.T) {
	runner := &fakeRunner{err: graph.ErrEmptyQuery}
	srv := newTestServer(t, runner, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{"query":""}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	var resp errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error response is not valid JSON: %v", err)
	}
	if resp.Error != "empty_query" {
		t.Errorf("error code = %q, want empty_query", resp.Error)
	}
}

func TestQueryEndpointMalformedBody(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestQueryEndpointInternalError(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{err: errors.New("boom")}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{"query":"hi"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestDocumentsIngest(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, &fakeIngester{chunks: 3}, nil)

	body := `{"content":"some study material","metadata":{"language":"English"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body)
	}

	var resp ingestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.DocumentID != "generated-id" || resp.Chunks != 3 {
		t.Errorf("response = %+v", resp)
	}
}

func TestDocumentsIngestEmptyContent(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, &fakeIngester{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(`{"content":"  "}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDocumentsDelete(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, &fakeIngester{chunks: 3}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/doc-1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestDocumentsDeleteNotFound(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, &fakeIngester{chunks: 0}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/missing", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSessionsList(t *testing.T) {
	learnerID := uuid.New()
	sessions := &fakeSessions{sessions: []learner.Session{
		{ID: uuid.New(), LearnerID: learnerID, Active: true},
	}}
	srv := newTestServer(t, &fakeRunner{}, nil, sessions)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/learners/"+learnerID.String()+"/sessions", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Sessions []sessionJSON `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(resp.Sessions) != 1 || !resp.Sessions[0].Active {
		t.Errorf("sessions = %+v", resp.Sessions)
	}
}

func TestSessionsListInvalidLearnerID(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, nil, &fakeSessions{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/learners/guest-1/sessions", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSessionEnd(t *testing.T) {
	sessions := &fakeSessions{}
	srv := newTestServer(t, &fakeRunner{}, nil, sessions)

	sessionID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+sessionID.String()+"/end",
		strings.NewReader(`{"accuracy":0.8}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	if len(sessions.ended) != 1 || sessions.ended[0] != sessionID {
		t.Errorf("ended = %v, want [%s]", sessions.ended, sessionID)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, nil, nil)

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{"query":"hi"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header is missing")
	}
}

func TestPanicRecovery(t *testing.T) {
	panicRunner := &panickingRunner{}
	srv := newTestServer(t, panicRunner, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{"query":"hi"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 after panic", rec.Code)
	}
}

type panickingRunner struct{}

func (*panickingRunner) Run(_ context.Context, _ graph.State) (*graph.State, error) {
	panic("handler bug")
}
