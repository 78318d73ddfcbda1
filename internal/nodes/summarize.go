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

const summarizePrompt = `Summarize the material below for a learner. Lead with
the core idea, then the supporting points in the order the material presents
them. Keep it roughly a quarter of the original length.

Material:
%s

Request: %s

Summary:`

// Summarize condenses the request's documents.
type Summarize struct {
	g         *genkit.Genkit
	modelName string
	logger    *slog.Logger
}

// NewSummarize creates the summarization handler.
func NewSummarize(g *genkit.Genkit, modelName string, logger *slog.Logger) (*Summarize, error) {
	if g == nil {
		return nil, errors.New("genkit instance is required")
	}
	if modelName == "" {
		return nil, errors.New("model name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarize{g: g, modelName: modelName, logger: logger}, nil
}

// Name implements graph.Handler.
func (h *Summarize) Name() string { return "summarization" }

// Process summarizes the attached documents, or the query itself when the
// request carries no documents.
func (h *Summarize) Process(ctx context.Context, s *graph.State) error {
	material := s.Query
	if len(s.Documents) > 0 {
		var contents []string
		for _, doc := range s.Documents {
			contents = append(contents, doc.Content)
		}
		material = strings.Join(contents, "\n---\n")
	}

	resp, err := genkit.Generate(ctx, h.g,
		ai.WithPrompt(summarizePrompt, material, s.Query),
		ai.WithModelName(h.modelName),
	)
	if err != nil {
		return fmt.Errorf("summarization failed: %w", err)
	}

	s.Result = resp.Text()
	s.HandledBy = h.Name()
	s.Next = graph.StepEnd
	return nil
}
