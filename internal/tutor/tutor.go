// Package tutor implements the personalized tutoring sub-agent.
//
// The tutor is only reached by delegation from the content processor and is
// always terminal: it produces a response and never delegates further. Its
// single identity decision per request separates registered learners, whose
// profiles and sessions live in PostgreSQL, from guests, who are profiled in
// memory from the query text and generate no storage traffic at all.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/studyhall/studyhall/internal/graph"
	"github.com/studyhall/studyhall/internal/learner"
)

// HandlerName is the tutor's name in the routing graph.
const HandlerName = "tutor_agent"

const (
	fallbackResponseEN = "I'm sorry, I encountered an error processing your tutoring request. " +
		"I can help with personalized learning, managing tutoring sessions, or tracking your progress. " +
		"How can I assist you with your learning journey?"

	fallbackResponseAR = "عذراً، واجهت خطأ في معالجة استفسارك التعليمي. " +
		"يمكنني مساعدتك في التعلم الشخصي، إدارة جلسات التدريس، أو تتبع تقدمك. " +
		"كيف يمكنني مساعدتك في رحلتك التعليمية؟"
)

// Config contains dependencies for the tutor agent. All fields except Logger
// are required.
type Config struct {
	Genkit    *genkit.Genkit
	ModelName string
	Store     LearnerStore
	Logger    *slog.Logger
}

func (c Config) validate() error {
	if c.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if c.ModelName == "" {
		return errors.New("model name is required")
	}
	if c.Store == nil {
		return errors.New("learner store is required")
	}
	return nil
}

// Agent is the tutoring handler. It is stateless across requests; all
// per-request data lives in graph.State and the identity resolved at entry.
//
// Agent is safe for concurrent use by multiple goroutines.
type Agent struct {
	g         *genkit.Genkit
	modelName string
	store     LearnerStore
	logger    *slog.Logger
}

// New creates a tutor Agent.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		g:         cfg.Genkit,
		modelName: cfg.ModelName,
		store:     cfg.Store,
		logger:    logger,
	}, nil
}

// Name implements graph.Handler.
func (a *Agent) Name() string { return HandlerName }

// Process serves one tutoring request. It never returns an error for model
// failures; those degrade to a localized fallback response so the learner
// always gets an answer.
func (a *Agent) Process(ctx context.Context, s *graph.State) error {
	resolved := resolveLearner(ctx, a.store, a.logger, s.LearnerID, s.SessionID, s.Query)
	language := ResolveLanguage(resolved.Guest, s.Documents, s.Query)

	if simplifyRequested(s.Adaptation) {
		resolved = simplified(resolved)
	}

	response, kind := a.respond(ctx, s, resolved, language)

	if resolved.Registered != nil {
		a.logInteraction(ctx, resolved.Registered, kind, s.Query, response)
		s.SessionID = resolved.Registered.Session.ID.String()
	}

	s.Result = response
	s.HandledBy = HandlerName
	s.ProfileSummary = profileSummary(resolved, language)
	s.Next = graph.StepEnd
	return nil
}

// respond generates the tutoring response, choosing between the explanation
// engine and the practice generator, and falls back on any model failure.
func (a *Agent) respond(ctx context.Context, s *graph.State, resolved Resolved, language string) (response, kind string) {
	var prompt string
	if practiceRequested(s.Query) {
		kind = learner.InteractionPractice
		prompt = practicePrompt(s.Query, resolved, language, s.Adaptation)
	} else {
		kind = learner.InteractionExplanation
		prompt = explanationPrompt(s.Query, resolved, language, documentContents(s.Documents), s.Adaptation)
	}

	resp, err := genkit.Generate(ctx, a.g,
		ai.WithPrompt(prompt),
		ai.WithModelName(a.modelName),
	)
	if err != nil {
		a.logger.Error("tutoring generation failed",
			"kind", kind, "language", language, "error", err)
		return fallbackResponse(language), kind
	}

	return resp.Text(), kind
}

// logInteraction records the exchange for a registered learner. Failures are
// logged and swallowed; analytics never block a response.
func (a *Agent) logInteraction(ctx context.Context, reg *Registered, kind, query, response string) {
	if reg.Session.ID == uuid.Nil {
		return
	}

	err := a.store.LogInteraction(ctx, learner.Interaction{
		SessionID: reg.Session.ID,
		Kind:      kind,
		Query:     query,
		Response:  response,
	})
	if err != nil {
		a.logger.Warn("failed to log interaction",
			"session_id", reg.Session.ID, "error", err)
	}
}

// simplifyRequested reports whether the adaptation hint asks for a simpler
// rendition, whatever its exact phrasing. The hint is free text; the full
// text still reaches the prompt builders verbatim.
func simplifyRequested(hint string) bool {
	return strings.Contains(strings.ToLower(hint), "simplif")
}

// simplified forces easy difficulty for the active identity branch.
func simplified(r Resolved) Resolved {
	if r.Registered != nil {
		reg := *r.Registered
		reg.Profile.Difficulty = learner.DifficultyEasy
		return Resolved{Registered: &reg}
	}
	guest := *r.Guest
	guest.Difficulty = learner.DifficultyEasy
	return Resolved{Guest: &guest}
}

func documentContents(docs []graph.Document) []string {
	if len(docs) == 0 {
		return nil
	}
	contents := make([]string, 0, len(docs))
	for _, d := range docs {
		contents = append(contents, d.Content)
	}
	return contents
}

func fallbackResponse(language string) string {
	if language == "Arabic" {
		return fallbackResponseAR
	}
	return fallbackResponseEN
}

func profileSummary(r Resolved, language string) string {
	grade, style, difficulty := profileTraits(r)
	who := "registered"
	if r.IsGuest() {
		who = "guest"
	}
	return fmt.Sprintf("%s learner, grade %d, style %s, difficulty %s, language %s",
		who, grade, style, difficulty, language)
}
