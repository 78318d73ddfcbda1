// Package learner provides persistence for learner profiles, tutoring
// sessions, and the interaction log.
//
// Only registered learners reach this package. Guest sessions are profiled
// in process by the tutor and never touch storage.
package learner

import (
	"time"

	"github.com/google/uuid"
)

// Style is a learner's preferred learning modality.
type Style string

// Learning styles. StyleMixed is the default when nothing is known.
const (
	StyleVisual      Style = "visual"
	StyleAuditory    Style = "auditory"
	StyleKinesthetic Style = "kinesthetic"
	StyleAnalytical  Style = "analytical"
	StyleCreative    Style = "creative"
	StyleMethodical  Style = "methodical"
	StyleMixed       Style = "mixed"
)

// Difficulty is a learner's preferred challenge level.
type Difficulty string

// Difficulty preferences.
const (
	DifficultyEasy        Difficulty = "easy"
	DifficultyMedium      Difficulty = "medium"
	DifficultyChallenging Difficulty = "challenging"
)

// Interaction kinds recorded in the interaction log.
const (
	InteractionQuestion    = "question"
	InteractionExplanation = "explanation"
	InteractionPractice    = "practice"
	InteractionAssessment  = "assessment"
	InteractionHint        = "hint"
	InteractionFeedback    = "feedback"
)

// Profile represents a registered learner's stored profile.
type Profile struct {
	ID             uuid.UUID
	GradeLevel     int
	LearningStyle  Style
	Difficulty     Difficulty
	Language       string
	AccuracyRate   float64
	TotalSessions  int
	MasteredTopics []string
	Struggles      []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DefaultProfile returns the profile created for a first-time learner.
func DefaultProfile(id uuid.UUID) Profile {
	return Profile{
		ID:            id,
		GradeLevel:    8,
		LearningStyle: StyleMixed,
		Difficulty:    DifficultyMedium,
		Language:      "English",
		AccuracyRate:  0.7,
	}
}

// Session groups consecutive interactions for one learner.
type Session struct {
	ID        uuid.UUID
	LearnerID uuid.UUID
	Topic     string
	Active    bool
	StartedAt time.Time
	EndedAt   time.Time // zero until the session ends
}

// Interaction is one logged tutor-learner exchange.
type Interaction struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Kind      string
	Query     string
	Response  string
	CreatedAt time.Time
}
