package learner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Store manages learner profiles, tutoring sessions, and interaction logging.
//
// Store is safe for concurrent use by multiple goroutines. Profile updates
// are last-writer-wins; concurrent requests for the same learner do not
// serialize on each other.
type Store struct {
	queries Querier
	logger  *slog.Logger
}

// NewStore creates a Store over the given querier.
//
// Example (production):
//
//	store := learner.NewStore(learner.NewPGQuerier(dbPool), logger)
//
// Example (testing with mock):
//
//	store := learner.NewStore(mockQuerier, slog.Default())
func NewStore(queries Querier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{queries: queries, logger: logger}
}

// GetOrCreateProfile loads the learner's profile, creating a default one on
// first contact. A storage failure on the read path degrades to an in-memory
// default profile rather than failing the request; only the creation path
// reports errors.
func (s *Store) GetOrCreateProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	p, err := s.queries.GetProfile(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		s.logger.Warn("profile load failed, using defaults", "learner_id", id, "error", err)
		return DefaultProfile(id), nil
	}

	created, err := s.queries.InsertProfile(ctx, DefaultProfile(id))
	if err != nil {
		return Profile{}, fmt.Errorf("failed to create profile for %s: %w", id, err)
	}

	s.logger.Debug("created learner profile", "learner_id", id)
	return created, nil
}

// UpdateProfile persists profile changes. Last writer wins.
func (s *Store) UpdateProfile(ctx context.Context, p Profile) (Profile, error) {
	return s.queries.UpdateProfile(ctx, p)
}

// StartSession begins a new tutoring session. Any previously active session
// for the learner is ended first, so a learner has at most one active session.
func (s *Store) StartSession(ctx context.Context, learnerID uuid.UUID, topic string) (Session, error) {
	if prev, err := s.queries.GetActiveSession(ctx, learnerID); err == nil {
		if err := s.endSession(ctx, prev, nil); err != nil {
			s.logger.Warn("failed to end previous session",
				"session_id", prev.ID, "error", err)
		}
	} else if !errors.Is(err, ErrNoActiveSession) {
		return Session{}, err
	}

	sess, err := s.queries.InsertSession(ctx, learnerID, topic)
	if err != nil {
		return Session{}, err
	}

	s.logger.Debug("started session", "session_id", sess.ID, "learner_id", learnerID)
	return sess, nil
}

// ContinueSession returns the learner's active session, starting a new one
// when none exists.
func (s *Store) ContinueSession(ctx context.Context, learnerID uuid.UUID, topic string) (Session, error) {
	sess, err := s.queries.GetActiveSession(ctx, learnerID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrNoActiveSession) {
		return Session{}, err
	}
	return s.StartSession(ctx, learnerID, topic)
}

// GetSession loads one session by its ID, whether active or closed.
func (s *Store) GetSession(ctx context.Context, sessionID uuid.UUID) (Session, error) {
	return s.queries.GetSession(ctx, sessionID)
}

// EndSession closes a session and stores its performance summary.
func (s *Store) EndSession(ctx context.Context, sessionID uuid.UUID, summary map[string]any) error {
	return s.endSession(ctx, Session{ID: sessionID}, summary)
}

func (s *Store) endSession(ctx context.Context, sess Session, summary map[string]any) error {
	if summary == nil {
		summary = map[string]any{}
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal performance summary: %w", err)
	}

	if err := s.queries.CloseSession(ctx, sess.ID, summaryJSON); err != nil {
		return err
	}

	s.logger.Debug("ended session", "session_id", sess.ID)
	return nil
}

// Sessions lists the learner's sessions, newest first.
func (s *Store) Sessions(ctx context.Context, learnerID uuid.UUID, limit, offset int32) ([]Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.queries.ListSessions(ctx, learnerID, limit, offset)
}

// LogInteraction records one tutor-learner exchange. Logging is best effort
// from the caller's point of view: the tutor treats a failure here as
// non-fatal, but the error is still returned for visibility.
func (s *Store) LogInteraction(ctx context.Context, i Interaction) error {
	id, err := s.queries.InsertInteraction(ctx, i)
	if err != nil {
		return err
	}

	s.logger.Debug("logged interaction",
		"interaction_id", id, "session_id", i.SessionID, "kind", i.Kind)
	return nil
}
