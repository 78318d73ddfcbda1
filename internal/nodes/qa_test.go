package nodes

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/genkit"

	"github.com/studyhall/studyhall/internal/graph"
	"github.com/studyhall/studyhall/internal/testutil"
)

type staticRetriever struct {
	docs []graph.Document
	err  error
}

func (r *staticRetriever) Retrieve(_ context.Context, _ string, _ int) ([]graph.Document, error) {
	return r.docs, r.err
}

func newTestQA(t *testing.T, mock *testutil.MockLLM, retriever Retriever) *QA {
	t.Helper()
	g := genkit.Init(context.Background())
	mock.RegisterModel(g)

	qa, err := NewQA(g, testutil.MockModelName, retriever, 5, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewQA() error = %v", err)
	}
	return qa
}

func TestQAUsesAttachedAndRetrievedContext(t *testing.T) {
	mock := testutil.NewMockLLM("generic answer")
	mock.AddResponse("mitochondria", "The mitochondria is the powerhouse of the cell.")

	retriever := &staticRetriever{docs: []graph.Document{
		{Content: "Mitochondria produce ATP through cellular respiration."},
	}}
	qa := newTestQA(t, mock, retriever)

	s := graph.State{
		Query: "what do mitochondria do",
		Documents: []graph.Document{
			{Content: "The cell has several organelles."},
		},
	}
	if err := qa.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if s.HandledBy != "qa" {
		t.Errorf("HandledBy = %q, want qa", s.HandledBy)
	}
	if s.Next != graph.StepEnd {
		t.Errorf("Next = %v, want StepEnd", s.Next)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("model calls = %d, want 1", len(calls))
	}
	prompt := calls[0].UserMessage
	if !strings.Contains(prompt, "several organelles") {
		t.Error("prompt is missing the attached document")
	}
	if !strings.Contains(prompt, "cellular respiration") {
		t.Error("prompt is missing the retrieved chunk")
	}
}

func TestQAWithoutContext(t *testing.T) {
	mock := testutil.NewMockLLM("plain answer")
	qa := newTestQA(t, mock, nil)

	s := graph.State{Query: "what is gravity"}
	if err := qa.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("model calls = %d, want 1", len(calls))
	}
	if strings.Contains(calls[0].UserMessage, "Study material") {
		t.Error("no-context prompt should not mention study material")
	}
}

func TestQARetrievalFailureStillAnswers(t *testing.T) {
	mock := testutil.NewMockLLM("answered anyway")
	qa := newTestQA(t, mock, &staticRetriever{err: errors.New("index down")})

	s := graph.State{Query: "what is gravity"}
	if err := qa.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v, retrieval failures should not escalate", err)
	}
	if s.Result != "answered anyway" {
		t.Errorf("Result = %q", s.Result)
	}
}

func TestQAModelFailurePropagates(t *testing.T) {
	mock := testutil.NewMockLLM("fallback")
	mock.AddFailure("gravity")
	qa := newTestQA(t, mock, nil)

	s := graph.State{Query: "what is gravity"}
	if err := qa.Process(context.Background(), &s); err == nil {
		t.Error("Process() error = nil, model failures must propagate to the driver")
	}
}
