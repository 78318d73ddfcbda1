package learner

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Sentinel errors returned by Querier implementations.
var (
	ErrProfileNotFound = errors.New("learner profile not found")
	ErrNoActiveSession = errors.New("no active session for learner")
	ErrSessionNotFound = errors.New("session not found")
)

// Querier defines the interface for database operations on learner data.
// Following Go best practices: interfaces are defined by the consumer, not
// the provider. Store depends on this abstraction so tests can swap in a
// mock without a database.
type Querier interface {
	// Profile operations
	GetProfile(ctx context.Context, id uuid.UUID) (Profile, error)
	InsertProfile(ctx context.Context, p Profile) (Profile, error)
	UpdateProfile(ctx context.Context, p Profile) (Profile, error)

	// Session operations
	GetSession(ctx context.Context, sessionID uuid.UUID) (Session, error)
	GetActiveSession(ctx context.Context, learnerID uuid.UUID) (Session, error)
	InsertSession(ctx context.Context, learnerID uuid.UUID, topic string) (Session, error)
	CloseSession(ctx context.Context, sessionID uuid.UUID, summary []byte) error
	ListSessions(ctx context.Context, learnerID uuid.UUID, limit, offset int32) ([]Session, error)

	// Interaction operations
	InsertInteraction(ctx context.Context, i Interaction) (uuid.UUID, error)
}
