package nodes

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/genkit"

	"github.com/studyhall/studyhall/internal/graph"
	"github.com/studyhall/studyhall/internal/testutil"
)

func newTestSummarize(t *testing.T, mock *testutil.MockLLM) *Summarize {
	t.Helper()
	g := genkit.Init(context.Background())
	mock.RegisterModel(g)

	h, err := NewSummarize(g, testutil.MockModelName, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewSummarize() error = %v", err)
	}
	return h
}

func TestSummarizeUsesDocuments(t *testing.T) {
	mock := testutil.NewMockLLM("a short summary")
	h := newTestSummarize(t, mock)

	s := graph.State{
		Query: "summarize this chapter",
		Documents: []graph.Document{
			{Content: "Chapter one covers the water cycle."},
			{Content: "Chapter two covers weather patterns."},
		},
	}
	if err := h.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if s.Result != "a short summary" {
		t.Errorf("Result = %q", s.Result)
	}
	if s.HandledBy != "summarization" {
		t.Errorf("HandledBy = %q", s.HandledBy)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("model calls = %d, want 1", len(calls))
	}
	prompt := calls[0].UserMessage
	if !strings.Contains(prompt, "water cycle") || !strings.Contains(prompt, "weather patterns") {
		t.Error("prompt is missing document contents")
	}
}

func TestSummarizeFallsBackToQuery(t *testing.T) {
	mock := testutil.NewMockLLM("summary of the query text")
	h := newTestSummarize(t, mock)

	s := graph.State{Query: "summarize: the mitochondria is the powerhouse of the cell"}
	if err := h.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("model calls = %d, want 1", len(calls))
	}
	if !strings.Contains(calls[0].UserMessage, "powerhouse of the cell") {
		t.Error("prompt should carry the query text as material when no documents are attached")
	}
}

func TestSummarizeModelFailurePropagates(t *testing.T) {
	mock := testutil.NewMockLLM("fallback")
	mock.AddFailure("chapter")
	h := newTestSummarize(t, mock)

	s := graph.State{Query: "summarize the chapter"}
	if err := h.Process(context.Background(), &s); err == nil {
		t.Error("Process() error = nil, model failures must propagate to the driver")
	}
}
