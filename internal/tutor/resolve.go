package tutor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/studyhall/studyhall/internal/learner"
)

// LearnerStore is the persistence surface the tutor needs for registered
// learners. Defined here, by the consumer; learner.Store satisfies it.
type LearnerStore interface {
	GetOrCreateProfile(ctx context.Context, id uuid.UUID) (learner.Profile, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (learner.Session, error)
	StartSession(ctx context.Context, learnerID uuid.UUID, topic string) (learner.Session, error)
	ContinueSession(ctx context.Context, learnerID uuid.UUID, topic string) (learner.Session, error)
	EndSession(ctx context.Context, sessionID uuid.UUID, summary map[string]any) error
	LogInteraction(ctx context.Context, i learner.Interaction) error
}

// Registered is a learner with a stored profile and session history.
type Registered struct {
	ID      uuid.UUID
	Profile learner.Profile
	Session learner.Session
}

// Resolved is the identity decision for one request, made exactly once at
// tutor entry. Exactly one of Registered and Guest is set; every downstream
// branch checks Registered == nil instead of re-deriving identity.
//
// Guests never generate persistence calls. The zero store traffic for the
// guest path is a property of this type: the guest branch carries no store
// handle at all.
type Resolved struct {
	Registered *Registered
	Guest      *GuestProfile
}

// IsGuest reports whether the request is served without persistence.
func (r Resolved) IsGuest() bool { return r.Registered == nil }

// Language returns the profile language for the resolved learner, or ""
// when the registered profile has none recorded.
func (r Resolved) Language() string {
	if r.Registered != nil {
		return r.Registered.Profile.Language
	}
	return r.Guest.Language
}

// resolveLearner decides the identity for a request. Any learner ID that does
// not parse as a UUID, including the empty string and guest-prefixed markers,
// resolves to a guest with a profile inferred from the query.
//
// Registered resolution is best effort: if the profile or session cannot be
// loaded the learner still gets defaults, never an error.
func resolveLearner(ctx context.Context, store LearnerStore, logger *slog.Logger, learnerID, sessionID, query string) Resolved {
	id, err := uuid.Parse(learnerID)
	if err != nil {
		guest := InferGuestProfile(query)
		logger.Debug("resolved guest learner",
			"grade_level", guest.GradeLevel,
			"learning_style", guest.LearningStyle,
			"language", guest.Language)
		return Resolved{Guest: &guest}
	}

	profile, err := store.GetOrCreateProfile(ctx, id)
	if err != nil {
		logger.Warn("profile resolution failed, using defaults",
			"learner_id", id, "error", err)
		profile = learner.DefaultProfile(id)
	}

	session, err := resolveSession(ctx, store, id, sessionID)
	if err != nil {
		logger.Warn("session resolution failed, continuing without session",
			"learner_id", id, "error", err)
	}

	return Resolved{Registered: &Registered{ID: id, Profile: profile, Session: session}}
}

// resolveSession reuses the caller's session when it names one that exists,
// belongs to the learner, and is still active. Anything else falls through to
// continuing or starting the learner's own session, so a caller cannot attach
// interactions to a foreign or closed session by naming its ID.
func resolveSession(ctx context.Context, store LearnerStore, learnerID uuid.UUID, sessionID string) (learner.Session, error) {
	if sid, err := uuid.Parse(sessionID); err == nil {
		sess, err := store.GetSession(ctx, sid)
		if err == nil && sess.LearnerID == learnerID && sess.Active {
			return sess, nil
		}
	}

	sess, err := store.ContinueSession(ctx, learnerID, "")
	if err != nil {
		return learner.Session{}, fmt.Errorf("failed to resolve session: %w", err)
	}
	return sess, nil
}
