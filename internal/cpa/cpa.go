// Package cpa implements the content processor agent, the superset handler
// for requests the first-stage router cannot place more precisely.
//
// Per request it makes two decisions in order: whether to delegate to the
// tutor, and if not, which of its own handlers serves the request. Delegation
// is signaled through the graph state; the driver performs the hop, the
// content processor never invokes the tutor itself.
package cpa

import (
	"context"
	"errors"
	"log/slog"

	"github.com/firebase/genkit/go/genkit"

	"github.com/studyhall/studyhall/internal/graph"
	"github.com/studyhall/studyhall/internal/language"
)

// HandlerName is the content processor's name in the routing graph.
const HandlerName = "content_processor_agent"

const (
	fallbackResponseEN = "I'm sorry, I encountered an error processing your request. " +
		"I can help with document analysis, creating learning units, or general questions. " +
		"How can I assist you?"

	fallbackResponseAR = "عذراً، واجهت خطأ في معالجة استفسارك. " +
		"يمكنني مساعدتك في تحليل المستندات، إنشاء وحدات تعليمية، أو الإجابة على الأسئلة العامة. " +
		"كيف يمكنني مساعدتك؟"
)

// Retriever fetches knowledge chunks relevant to a query. Defined here, by
// the consumer; knowledge.Store satisfies it through a thin adapter.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]graph.Document, error)
}

// Config contains dependencies for the content processor. Retriever is
// optional; without one, chat requests run without retrieved context.
type Config struct {
	Genkit    *genkit.Genkit
	ModelName string
	Retriever Retriever
	TopK      int
	Logger    *slog.Logger
}

func (c Config) validate() error {
	if c.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if c.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Agent is the content processor handler.
//
// Agent is safe for concurrent use by multiple goroutines.
type Agent struct {
	g         *genkit.Genkit
	modelName string
	retriever Retriever
	topK      int
	logger    *slog.Logger
}

// New creates a content processor Agent.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}

	return &Agent{
		g:         cfg.Genkit,
		modelName: cfg.ModelName,
		retriever: cfg.Retriever,
		topK:      topK,
		logger:    logger,
	}, nil
}

// Name implements graph.Handler.
func (a *Agent) Name() string { return HandlerName }

// Process serves one request. Tutoring requests delegate by setting the next
// step; everything else runs exactly one of the agent's own handlers. Handler
// failures degrade to a localized fallback response and are never escalated.
func (a *Agent) Process(ctx context.Context, s *graph.State) error {
	if IsTutoringRequest(s.Query) {
		a.logger.Debug("delegating to tutor", "query", s.Query)
		s.Next = graph.StepTutor
		return nil
	}

	handler := a.selectHandler(s)
	a.logger.Debug("selected handler", "handler", handler.name)

	result, err := handler.run(ctx, s)
	if err != nil {
		a.logger.Error("content handler failed",
			"handler", handler.name, "query", s.Query, "error", err)
		result = fallbackResponse(language.Detect(s.Query))
	}

	s.Result = result
	s.HandledBy = HandlerName
	s.Next = graph.StepEnd
	return nil
}

func fallbackResponse(lang string) string {
	if lang == "Arabic" {
		return fallbackResponseAR
	}
	return fallbackResponseEN
}
