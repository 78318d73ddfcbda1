package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/studyhall/studyhall/internal/knowledge"
)

type fakeSearcher struct {
	results []knowledge.Result
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ ...knowledge.SearchOption) ([]knowledge.Result, error) {
	return f.results, f.err
}

func TestRetrieveConvertsResults(t *testing.T) {
	searcher := &fakeSearcher{results: []knowledge.Result{
		{
			Chunk: knowledge.Chunk{
				Content:  "mitochondria produce ATP",
				Metadata: map[string]string{"language": "English"},
			},
			Similarity: 0.85,
		},
	}}

	docs, err := New(searcher).Retrieve(context.Background(), "what do mitochondria do", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	if docs[0].Content != "mitochondria produce ATP" {
		t.Errorf("Content = %q", docs[0].Content)
	}
	if docs[0].Language() != "English" {
		t.Errorf("Language() = %q, want English", docs[0].Language())
	}
}

func TestRetrievePropagatesError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("database down")}

	if _, err := New(searcher).Retrieve(context.Background(), "q", 3); err == nil {
		t.Error("Retrieve() error = nil, want error")
	}
}
