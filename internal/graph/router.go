package graph

import (
	"context"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// routerPrompt asks the model for exactly one operation label.
const routerPrompt = `Classify the user request into exactly one of these operations:

- qa: a direct question that should be answered from the provided study material
- summarization: a request to summarize or condense the provided material
- content_processor_agent: anything else, including document analysis, learning content generation, tutoring, and general chat

Respond with only the operation label, nothing else.

Request: %s

Operation:`

// Router is the first-stage classifier selecting a coarse operation type.
//
// Classify never fails: when the model call errors or returns an unknown
// label, the router falls back to the content processor, which can handle
// any request type.
type Router struct {
	g         *genkit.Genkit
	modelName string
	logger    *slog.Logger
}

// NewRouter creates a Router backed by the given model.
func NewRouter(g *genkit.Genkit, modelName string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{g: g, modelName: modelName, logger: logger}
}

// Classify maps a query to one of StepQA, StepSummarize, or
// StepContentProcessor. It makes a single model call with no retries beyond
// the provider's own policy, and never touches documents or learner state.
func (r *Router) Classify(ctx context.Context, query string) Step {
	if step, ok := fastPath(query); ok {
		r.logger.Debug("classified request without model call", "step", step.String())
		return step
	}

	resp, err := genkit.Generate(ctx, r.g,
		ai.WithPrompt(routerPrompt, query),
		ai.WithModelName(r.modelName),
	)
	if err != nil {
		r.logger.Warn("router classification failed, defaulting to content processor",
			"error", err)
		return StepContentProcessor
	}

	step := parseStepLabel(resp.Text())
	r.logger.Debug("classified request", "step", step.String())
	return step
}

// summaryPrefixes are openings so unambiguous that no model call is needed.
var summaryPrefixes = []string{
	"summarize",
	"summarise",
	"tl;dr",
	"give me a summary",
}

// fastPath resolves unambiguous requests without a model call.
func fastPath(query string) (Step, bool) {
	q := strings.TrimSpace(strings.ToLower(query))
	for _, prefix := range summaryPrefixes {
		if strings.HasPrefix(q, prefix) {
			return StepSummarize, true
		}
	}
	return StepEnd, false
}

// parseStepLabel maps a model response to a routable step.
// Unknown labels resolve to the content processor.
func parseStepLabel(label string) Step {
	switch strings.TrimSpace(strings.ToLower(label)) {
	case "qa", "question_answer":
		return StepQA
	case "summarization", "summarize", "summarise", "summary":
		return StepSummarize
	case "content_processor_agent", "content_processor", "chat":
		return StepContentProcessor
	default:
		return StepContentProcessor
	}
}
