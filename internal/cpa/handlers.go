package cpa

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/studyhall/studyhall/internal/graph"
)

// contentHandler is one of the agent's internal handlers. Exactly one runs
// per request.
type contentHandler struct {
	name string
	run  func(ctx context.Context, s *graph.State) (string, error)
}

var learningUnitTerms = []string{
	"learning unit", "lesson plan", "study plan", "curriculum",
	"course outline", "teaching unit",
}

var analysisTerms = []string{
	"analyze", "analysis", "key points", "main ideas",
	"review this document", "what does this document",
}

// selectHandler picks the single handler for a non-tutoring request.
// An adaptation instruction always means regenerating material, so it selects
// learning-unit generation outright. Otherwise the unit handler is keyed on
// explicit vocabulary, document analysis needs attached documents, and
// everything else is chat, with retrieval when a retriever is wired.
func (a *Agent) selectHandler(s *graph.State) contentHandler {
	q := strings.ToLower(s.Query)

	if s.Adaptation != "" {
		return contentHandler{name: "learning_units", run: a.generateLearningUnit}
	}

	for _, term := range learningUnitTerms {
		if strings.Contains(q, term) {
			return contentHandler{name: "learning_units", run: a.generateLearningUnit}
		}
	}

	if len(s.Documents) > 0 {
		for _, term := range analysisTerms {
			if strings.Contains(q, term) {
				return contentHandler{name: "document_analysis", run: a.analyzeDocuments}
			}
		}
	}

	return contentHandler{name: "chat", run: a.chat}
}

const analysisPrompt = `Analyze the following document for a learner.
Cover the main ideas, key terms, and how the material is organized.
Keep the analysis grounded in the text; do not invent content.

Document:
%s

Request: %s

Analysis:`

// analyzeDocuments produces a structured analysis of the attached documents.
func (a *Agent) analyzeDocuments(ctx context.Context, s *graph.State) (string, error) {
	var contents []string
	for _, doc := range s.Documents {
		contents = append(contents, doc.Content)
	}

	resp, err := genkit.Generate(ctx, a.g,
		ai.WithPrompt(analysisPrompt, strings.Join(contents, "\n---\n"), s.Query),
		ai.WithModelName(a.modelName),
	)
	if err != nil {
		return "", fmt.Errorf("document analysis failed: %w", err)
	}
	return resp.Text(), nil
}

const learningUnitPrompt = `Create a structured learning unit for the request below.
Include: a title, learning objectives, an ordered list of topics with short
descriptions, suggested activities, and a short self-check.%s

Request: %s

Learning unit:`

// generateLearningUnit builds a structured unit of study from the request,
// honoring the adaptation instruction when one is set.
func (a *Agent) generateLearningUnit(ctx context.Context, s *graph.State) (string, error) {
	var adaptation string
	if s.Adaptation != "" {
		adaptation = "\nAdapt the material as instructed: " + s.Adaptation + "."
	}

	resp, err := genkit.Generate(ctx, a.g,
		ai.WithPrompt(learningUnitPrompt, adaptation, s.Query),
		ai.WithModelName(a.modelName),
	)
	if err != nil {
		return "", fmt.Errorf("learning unit generation failed: %w", err)
	}
	return resp.Text(), nil
}

const ragChatPrompt = `Answer the user's question using the provided context.
If the context does not cover the question, say so and answer from general
knowledge, noting the distinction.

Context:
%s

Question: %s

Answer:`

const generalChatPrompt = `You are a helpful study assistant.

Question: %s

Answer:`

// chat answers with retrieved context when available, falling back to
// general chat when retrieval is unavailable, fails, or finds nothing.
// A retrieval failure is not a handler failure; the learner still gets an
// uncontextualized answer.
func (a *Agent) chat(ctx context.Context, s *graph.State) (string, error) {
	contextText := a.retrieveContext(ctx, s)

	var opts []ai.GenerateOption
	if contextText != "" {
		opts = append(opts, ai.WithPrompt(ragChatPrompt, contextText, s.Query))
	} else {
		opts = append(opts, ai.WithPrompt(generalChatPrompt, s.Query))
	}
	opts = append(opts, ai.WithModelName(a.modelName))

	resp, err := genkit.Generate(ctx, a.g, opts...)
	if err != nil {
		return "", fmt.Errorf("chat generation failed: %w", err)
	}
	return resp.Text(), nil
}

// retrieveContext gathers retrieved chunks plus any documents attached to the
// request. Best effort: errors degrade to no context.
func (a *Agent) retrieveContext(ctx context.Context, s *graph.State) string {
	var parts []string
	for _, doc := range s.Documents {
		parts = append(parts, doc.Content)
	}

	if a.retriever != nil {
		retrieved, err := a.retriever.Retrieve(ctx, s.Query, a.topK)
		if err != nil {
			a.logger.Warn("retrieval failed, continuing without context", "error", err)
		}
		for _, doc := range retrieved {
			parts = append(parts, doc.Content)
		}
	}

	return strings.Join(parts, "\n---\n")
}
