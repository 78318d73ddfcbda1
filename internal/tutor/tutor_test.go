package tutor

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/studyhall/studyhall/internal/graph"
	"github.com/studyhall/studyhall/internal/learner"
	"github.com/studyhall/studyhall/internal/testutil"
)

// recordingStore is a LearnerStore that tracks every call.
type recordingStore struct {
	countingStore
	interactions []learner.Interaction
	session      learner.Session
}

func (r *recordingStore) ContinueSession(_ context.Context, learnerID uuid.UUID, _ string) (learner.Session, error) {
	r.calls++
	if r.session.ID == uuid.Nil {
		r.session = learner.Session{ID: uuid.New(), LearnerID: learnerID, Active: true}
	}
	return r.session, nil
}

func (r *recordingStore) LogInteraction(_ context.Context, i learner.Interaction) error {
	r.calls++
	r.interactions = append(r.interactions, i)
	return nil
}

func newTestAgent(t *testing.T, mock *testutil.MockLLM, store LearnerStore) *Agent {
	t.Helper()
	g := genkit.Init(context.Background())
	mock.RegisterModel(g)

	agent, err := New(Config{
		Genkit:    g,
		ModelName: testutil.MockModelName,
		Store:     store,
		Logger:    slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return agent
}

func TestProcessGuestNeverTouchesStorage(t *testing.T) {
	mock := testutil.NewMockLLM("a gentle explanation")
	store := &countingStore{}
	agent := newTestAgent(t, mock, store)

	s := graph.State{Query: "explain fractions to me", LearnerID: "guest-7f"}
	if err := agent.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if store.calls != 0 {
		t.Errorf("guest request made %d persistence calls, want 0", store.calls)
	}
	if s.Result != "a gentle explanation" {
		t.Errorf("Result = %q", s.Result)
	}
	if s.Next != graph.StepEnd {
		t.Errorf("Next = %v, tutor must be terminal", s.Next)
	}
	if s.HandledBy != HandlerName {
		t.Errorf("HandledBy = %q, want %q", s.HandledBy, HandlerName)
	}
}

func TestProcessGuestElementaryVisualProfile(t *testing.T) {
	mock := testutil.NewMockLLM("a picture-friendly walkthrough")
	store := &countingStore{}
	agent := newTestAgent(t, mock, store)

	s := graph.State{Query: "Can you show me pictures of how fractions work? I'm in 4th grade."}
	if err := agent.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if store.calls != 0 {
		t.Errorf("guest request made %d persistence calls, want 0", store.calls)
	}
	for _, want := range []string{"guest learner", "grade 4", "style visual", "difficulty easy"} {
		if !strings.Contains(s.ProfileSummary, want) {
			t.Errorf("ProfileSummary = %q, missing %q", s.ProfileSummary, want)
		}
	}
	if s.Result != "a picture-friendly walkthrough" {
		t.Errorf("Result = %q", s.Result)
	}
}

func TestProcessRegisteredLogsInteraction(t *testing.T) {
	mock := testutil.NewMockLLM("personalized explanation")
	store := &recordingStore{}
	agent := newTestAgent(t, mock, store)

	id := uuid.New()
	s := graph.State{Query: "explain fractions to me", LearnerID: id.String()}
	if err := agent.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(store.interactions) != 1 {
		t.Fatalf("logged %d interactions, want 1", len(store.interactions))
	}
	got := store.interactions[0]
	if got.Kind != learner.InteractionExplanation {
		t.Errorf("Kind = %q, want explanation", got.Kind)
	}
	if got.SessionID != store.session.ID {
		t.Errorf("SessionID = %s, want %s", got.SessionID, store.session.ID)
	}
	if s.SessionID != store.session.ID.String() {
		t.Errorf("state SessionID = %q, want resolved session", s.SessionID)
	}
}

func TestProcessForeignSessionIDNotTrusted(t *testing.T) {
	mock := testutil.NewMockLLM("personalized explanation")
	store := &recordingStore{}
	agent := newTestAgent(t, mock, store)

	id := uuid.New()
	foreign := uuid.NewString()
	s := graph.State{Query: "explain fractions to me", LearnerID: id.String(), SessionID: foreign}
	if err := agent.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if s.SessionID == foreign {
		t.Errorf("SessionID = %q, the unverified caller session must not be reused", s.SessionID)
	}
	if len(store.interactions) != 1 {
		t.Fatalf("logged %d interactions, want 1", len(store.interactions))
	}
	if store.interactions[0].SessionID != store.session.ID {
		t.Errorf("interaction logged against %s, want the learner's own session %s",
			store.interactions[0].SessionID, store.session.ID)
	}
}

func TestProcessPracticeRequestLogsPracticeKind(t *testing.T) {
	mock := testutil.NewMockLLM("five practice problems")
	store := &recordingStore{}
	agent := newTestAgent(t, mock, store)

	s := graph.State{Query: "give me practice problems on fractions", LearnerID: uuid.NewString()}
	if err := agent.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(store.interactions) != 1 || store.interactions[0].Kind != learner.InteractionPractice {
		t.Errorf("interactions = %+v, want one practice interaction", store.interactions)
	}
}

func TestProcessGenerationFailureFallsBack(t *testing.T) {
	mock := testutil.NewMockLLM("unused")
	mock.AddFailure("fractions")
	agent := newTestAgent(t, mock, &countingStore{})

	s := graph.State{Query: "explain fractions to me"}
	if err := agent.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v, tutor failures must not escalate", err)
	}

	if s.Result != fallbackResponseEN {
		t.Errorf("Result = %q, want the English fallback", s.Result)
	}
}

func TestProcessGenerationFailureArabicFallback(t *testing.T) {
	mock := testutil.NewMockLLM("unused")
	mock.AddFailure("الكسور")
	agent := newTestAgent(t, mock, &countingStore{})

	s := graph.State{Query: "اشرح لي الكسور"}
	if err := agent.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if s.Result != fallbackResponseAR {
		t.Errorf("Result = %q, want the Arabic fallback", s.Result)
	}
}

func TestProcessSimplifyAdaptation(t *testing.T) {
	// Any phrasing that asks for simplification drops the difficulty, not
	// just the bare keyword.
	for _, hint := range []string{"simplify", "please simplify this further"} {
		t.Run(hint, func(t *testing.T) {
			mock := testutil.NewMockLLM("fallback")
			mock.AddResponse("Avoid jargon", "a simplified answer")
			agent := newTestAgent(t, mock, &countingStore{})

			s := graph.State{Query: "explain derivatives", Adaptation: hint}
			if err := agent.Process(context.Background(), &s); err != nil {
				t.Fatalf("Process() error = %v", err)
			}

			if s.Result != "a simplified answer" {
				t.Errorf("Result = %q, want the simplified-style answer", s.Result)
			}
		})
	}
}

func TestProcessAdaptationHintReachesPrompt(t *testing.T) {
	mock := testutil.NewMockLLM("fallback")
	mock.AddResponse("use sports analogies", "an analogy-rich answer")
	agent := newTestAgent(t, mock, &countingStore{})

	s := graph.State{Query: "explain derivatives", Adaptation: "use sports analogies"}
	if err := agent.Process(context.Background(), &s); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if s.Result != "an analogy-rich answer" {
		t.Errorf("Result = %q, want the adapted answer", s.Result)
	}
}
