// Package nodes contains the single-shot graph handlers for question
// answering and summarization. Unlike the agents, these have no internal
// routing: one prompt, one response. Failures propagate to the driver, which
// owns the fallback.
package nodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/studyhall/studyhall/internal/graph"
)

const qaPrompt = `Answer the question using the study material below. Quote or
reference the material where it supports the answer. If the material does not
cover the question, say so before answering from general knowledge.

Study material:
%s

Question: %s

Answer:`

const qaPromptNoContext = `Answer the question below accurately and concisely.

Question: %s

Answer:`

// QA answers direct questions against the request's documents.
type QA struct {
	g         *genkit.Genkit
	modelName string
	retriever Retriever
	topK      int
	logger    *slog.Logger
}

// Retriever fetches knowledge chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]graph.Document, error)
}

// NewQA creates the question-answering handler. Retriever is optional.
func NewQA(g *genkit.Genkit, modelName string, retriever Retriever, topK int, logger *slog.Logger) (*QA, error) {
	if g == nil {
		return nil, errors.New("genkit instance is required")
	}
	if modelName == "" {
		return nil, errors.New("model name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if topK <= 0 {
		topK = 5
	}
	return &QA{g: g, modelName: modelName, retriever: retriever, topK: topK, logger: logger}, nil
}

// Name implements graph.Handler.
func (q *QA) Name() string { return "qa" }

// Process answers the query from attached documents plus retrieved context.
func (q *QA) Process(ctx context.Context, s *graph.State) error {
	contextText := gatherContext(ctx, q.retriever, q.topK, s, q.logger)

	var promptOpt ai.GenerateOption
	if contextText != "" {
		promptOpt = ai.WithPrompt(qaPrompt, contextText, s.Query)
	} else {
		promptOpt = ai.WithPrompt(qaPromptNoContext, s.Query)
	}

	resp, err := genkit.Generate(ctx, q.g, promptOpt, ai.WithModelName(q.modelName))
	if err != nil {
		return fmt.Errorf("question answering failed: %w", err)
	}

	s.Result = resp.Text()
	s.HandledBy = q.Name()
	s.Next = graph.StepEnd
	return nil
}

// gatherContext joins attached documents with retrieved chunks. Retrieval is
// best effort; an error just means less context.
func gatherContext(ctx context.Context, retriever Retriever, topK int, s *graph.State, logger *slog.Logger) string {
	var parts []string
	for _, doc := range s.Documents {
		parts = append(parts, doc.Content)
	}

	if retriever != nil {
		retrieved, err := retriever.Retrieve(ctx, s.Query, topK)
		if err != nil {
			logger.Warn("retrieval failed, answering without retrieved context", "error", err)
		}
		for _, doc := range retrieved {
			parts = append(parts, doc.Content)
		}
	}

	return strings.Join(parts, "\n---\n")
}
