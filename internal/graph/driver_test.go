package graph

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		// genkit.Init runs signal.NotifyContext and discards the cancel
		// func, so its watcher goroutine can never be stopped by tests.
		goleak.IgnoreTopFunction("os/signal.NotifyContext.func1"),
	)
}

// stubRouter builds a Router that never calls a model; Classify is exercised
// separately in router_test.go. Driver tests inject the classification by
// presetting handlers that read the query.
type stubHandler struct {
	name    string
	process func(ctx context.Context, s *State) error
}

func (h *stubHandler) Name() string { return h.name }
func (h *stubHandler) Process(ctx context.Context, s *State) error {
	return h.process(ctx, s)
}

func answering(name, result string) *stubHandler {
	return &stubHandler{name: name, process: func(_ context.Context, s *State) error {
		s.Result = result
		s.HandledBy = name
		s.Next = StepEnd
		return nil
	}}
}

func failing(name string) *stubHandler {
	return &stubHandler{name: name, process: func(_ context.Context, _ *State) error {
		return errors.New("boom")
	}}
}

func newTestDriver(t *testing.T, cfg Config) *Driver {
	t.Helper()
	if cfg.Router == nil {
		cfg.Router = NewRouter(nil, "", slog.New(slog.DiscardHandler))
	}
	if cfg.QA == nil {
		cfg.QA = answering("qa", "qa answer")
	}
	if cfg.Summarize == nil {
		cfg.Summarize = answering("summarization", "summary")
	}
	if cfg.ContentProcessor == nil {
		cfg.ContentProcessor = answering("content_processor_agent", "chat answer")
	}
	if cfg.Tutor == nil {
		cfg.Tutor = answering("tutor_agent", "tutoring answer")
	}
	cfg.Logger = slog.New(slog.DiscardHandler)

	d, err := NewDriver(cfg)
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}
	return d
}

// runFrom drives the handler loop from a preset step, bypassing the model
// call in Classify.
func runFrom(t *testing.T, d *Driver, s State, start Step) *State {
	t.Helper()
	out, err := d.run(context.Background(), s, start)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	return out
}

func TestRunEmptyQuery(t *testing.T) {
	d := newTestDriver(t, Config{})

	for _, query := range []string{"", "   ", "\n\t"} {
		if _, err := d.Run(context.Background(), State{Query: query}); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Run(%q) error = %v, want ErrEmptyQuery", query, err)
		}
	}
}

func TestRunHandlerProducesResult(t *testing.T) {
	d := newTestDriver(t, Config{})

	out := runFrom(t, d, State{Query: "what is osmosis"}, StepQA)

	if out.Result != "qa answer" {
		t.Errorf("Result = %q, want qa answer", out.Result)
	}
	if out.HandledBy != "qa" {
		t.Errorf("HandledBy = %q, want qa", out.HandledBy)
	}
	if out.Next != StepEnd {
		t.Errorf("Next = %v, want StepEnd", out.Next)
	}
}

func TestRunHandlerErrorFallsBack(t *testing.T) {
	d := newTestDriver(t, Config{Summarize: failing("summarization")})

	out := runFrom(t, d, State{Query: "summarize this"}, StepSummarize)

	if out.Result != hopFallbackResponseEN {
		t.Errorf("Result = %q, want the fallback response", out.Result)
	}
	if out.HandledBy != "summarization" {
		t.Errorf("HandledBy = %q, want summarization", out.HandledBy)
	}
}

func TestRunHandlerErrorArabicQueryGetsArabicFallback(t *testing.T) {
	d := newTestDriver(t, Config{Tutor: failing("tutor_agent")})

	out := runFrom(t, d, State{Query: "اشرح لي الكسور"}, StepTutor)

	if out.Result != hopFallbackResponseAR {
		t.Errorf("Result = %q, want the Arabic fallback", out.Result)
	}
}

func TestRunHandlerPanicFallsBack(t *testing.T) {
	panicking := &stubHandler{name: "qa", process: func(_ context.Context, _ *State) error {
		panic("unexpected")
	}}
	d := newTestDriver(t, Config{QA: panicking})

	out := runFrom(t, d, State{Query: "what is osmosis"}, StepQA)

	if out.Result != hopFallbackResponseEN {
		t.Errorf("Result = %q, want the fallback response", out.Result)
	}
}

func TestRunDelegationHop(t *testing.T) {
	delegating := &stubHandler{name: "content_processor_agent", process: func(_ context.Context, s *State) error {
		s.Next = StepTutor
		return nil
	}}
	d := newTestDriver(t, Config{ContentProcessor: delegating})

	out := runFrom(t, d, State{Query: "teach me algebra"}, StepContentProcessor)

	if out.Result != "tutoring answer" {
		t.Errorf("Result = %q, want the tutor's answer", out.Result)
	}
	if out.HandledBy != "tutor_agent" {
		t.Errorf("HandledBy = %q, want tutor_agent", out.HandledBy)
	}
}

func TestRunHandlerWithoutResultFallsBack(t *testing.T) {
	silent := &stubHandler{name: "qa", process: func(_ context.Context, s *State) error {
		s.Next = StepEnd
		return nil
	}}
	d := newTestDriver(t, Config{QA: silent})

	out := runFrom(t, d, State{Query: "anything"}, StepQA)

	if out.Result != hopFallbackResponseEN {
		t.Errorf("Result = %q, want the fallback response", out.Result)
	}
}

func TestRunNonAdvancingHandlerTerminates(t *testing.T) {
	stuck := &stubHandler{name: "qa", process: func(_ context.Context, s *State) error {
		s.Result = "partial"
		// Next stays StepQA, which would loop forever without the guard.
		s.Next = StepQA
		return nil
	}}
	d := newTestDriver(t, Config{QA: stuck})

	out := runFrom(t, d, State{Query: "anything"}, StepQA)

	if out.Next != StepEnd {
		t.Errorf("Next = %v, want StepEnd", out.Next)
	}
}

func TestNewDriverValidation(t *testing.T) {
	_, err := NewDriver(Config{})
	if err == nil {
		t.Error("NewDriver(Config{}) error = nil, want validation error")
	}
}
