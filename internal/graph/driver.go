package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/studyhall/studyhall/internal/language"
)

// ErrEmptyQuery indicates the inbound request carried no query text.
// It is the only error the graph escalates to the caller; every other
// failure degrades to a fallback result.
var ErrEmptyQuery = errors.New("query must not be empty")

// Fallback responses for a handler that fails in a way it could not recover
// from itself (error return or panic). Localized the same way the handlers
// localize their own fallbacks.
const (
	hopFallbackResponseEN = "I'm sorry, I couldn't process that request. " +
		"I can help with questions, summaries, document analysis, and tutoring. " +
		"Could you try rephrasing?"

	hopFallbackResponseAR = "عذراً، لم أتمكن من معالجة هذا الطلب. " +
		"يمكنني المساعدة في الأسئلة، التلخيص، تحليل المستندات، والتدريس. " +
		"هل يمكنك إعادة صياغة طلبك؟"
)

func hopFallbackResponse(query string) string {
	if language.Detect(query) == "Arabic" {
		return hopFallbackResponseAR
	}
	return hopFallbackResponseEN
}

// maxHops bounds a traversal. Router plus one delegation is the deepest
// legal path, so anything longer indicates a handler wiring bug.
const maxHops = 3

// Config contains the collaborators for a Driver. All fields are required.
type Config struct {
	Router           *Router
	QA               Handler
	Summarize        Handler
	ContentProcessor Handler
	Tutor            Handler
	Logger           *slog.Logger
}

func (cfg Config) validate() error {
	if cfg.Router == nil {
		return errors.New("router is required")
	}
	if cfg.QA == nil {
		return errors.New("qa handler is required")
	}
	if cfg.Summarize == nil {
		return errors.New("summarize handler is required")
	}
	if cfg.ContentProcessor == nil {
		return errors.New("content processor handler is required")
	}
	if cfg.Tutor == nil {
		return errors.New("tutor handler is required")
	}
	return nil
}

// Driver owns one traversal of the graph per request. It constructs nothing
// itself: Router and handlers are injected once at startup and shared across
// requests, so handlers must be safe for concurrent use.
//
// The Driver applies uniform error handling around every hop. A handler that
// returns an error or panics ends the traversal with a fallback result; the
// request never terminates without one.
type Driver struct {
	router   *Router
	handlers map[Step]Handler
	logger   *slog.Logger
}

// NewDriver creates a Driver with the given collaborators.
func NewDriver(cfg Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{
		router: cfg.Router,
		handlers: map[Step]Handler{
			StepQA:               cfg.QA,
			StepSummarize:        cfg.Summarize,
			StepContentProcessor: cfg.ContentProcessor,
			StepTutor:            cfg.Tutor,
		},
		logger: logger,
	}, nil
}

// Run executes the graph for one request and returns the final state.
// The state is copied in, so callers can reuse their request value.
//
// An empty query is the single precondition violation reported as an error;
// all handler failures degrade to a textual fallback result instead.
func (d *Driver) Run(ctx context.Context, s State) (*State, error) {
	s.Query = strings.TrimSpace(s.Query)
	if s.Query == "" {
		return nil, ErrEmptyQuery
	}

	return d.run(ctx, s, d.router.Classify(ctx, s.Query))
}

// run executes the hop loop from a starting step. Split from Run so tests
// can drive the loop without a model behind the router.
func (d *Driver) run(ctx context.Context, s State, start Step) (*State, error) {
	s.Next = start

	for hop := 0; hop < maxHops && s.Next != StepEnd; hop++ {
		handler, ok := d.handlers[s.Next]
		if !ok {
			d.logger.Error("no handler for step", "step", s.Next.String())
			s.Result = hopFallbackResponse(s.Query)
			s.Next = StepEnd
			break
		}

		prev := s.Next
		if err := d.runHop(ctx, handler, &s); err != nil {
			d.logger.Error("handler failed",
				"handler", handler.Name(),
				"query", s.Query,
				"error", err)
			s.Result = hopFallbackResponse(s.Query)
			s.HandledBy = handler.Name()
			s.Next = StepEnd
			break
		}

		// A handler that neither delegated nor terminated would loop forever.
		if s.Next == prev {
			d.logger.Error("handler did not advance the traversal",
				"handler", handler.Name(), "step", prev.String())
			s.Next = StepEnd
		}
	}

	if s.Result == "" {
		s.Result = hopFallbackResponse(s.Query)
	}
	s.Next = StepEnd

	d.logger.Debug("traversal complete",
		"handled_by", s.HandledBy,
		"result_length", len(s.Result))

	return &s, nil
}

// runHop invokes a single handler with panic recovery, so one misbehaving
// handler cannot take down the server or leak a request without a result.
func (d *Driver) runHop(ctx context.Context, h Handler, s *State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", h.Name(), r)
		}
	}()
	return h.Process(ctx, s)
}
