package learner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgx connection behavior the queries need.
// Both *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGQuerier implements Querier against PostgreSQL.
type PGQuerier struct {
	db DBTX
}

// NewPGQuerier creates a PGQuerier over the given connection or pool.
func NewPGQuerier(db DBTX) *PGQuerier {
	return &PGQuerier{db: db}
}

const getProfileSQL = `
SELECT id, grade_level, learning_style, difficulty_preference, preferred_language,
       accuracy_rate, total_sessions, mastered_topics, learning_struggles,
       created_at, updated_at
FROM learner_profiles
WHERE id = $1`

// GetProfile fetches one profile by learner ID.
func (q *PGQuerier) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	row := q.db.QueryRow(ctx, getProfileSQL, uuidToPgUUID(id))
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to get profile %s: %w", id, err)
	}
	return p, nil
}

const insertProfileSQL = `
INSERT INTO learner_profiles (
    id, grade_level, learning_style, difficulty_preference, preferred_language,
    accuracy_rate, total_sessions, mastered_topics, learning_struggles
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, grade_level, learning_style, difficulty_preference, preferred_language,
          accuracy_rate, total_sessions, mastered_topics, learning_struggles,
          created_at, updated_at`

// InsertProfile stores a new profile and returns the persisted row.
func (q *PGQuerier) InsertProfile(ctx context.Context, p Profile) (Profile, error) {
	mastered, struggles, err := marshalTopicLists(p)
	if err != nil {
		return Profile{}, err
	}

	row := q.db.QueryRow(ctx, insertProfileSQL,
		uuidToPgUUID(p.ID), p.GradeLevel, string(p.LearningStyle), string(p.Difficulty),
		p.Language, p.AccuracyRate, p.TotalSessions, mastered, struggles)
	stored, err := scanProfile(row)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to insert profile %s: %w", p.ID, err)
	}
	return stored, nil
}

const updateProfileSQL = `
UPDATE learner_profiles
SET grade_level = $2,
    learning_style = $3,
    difficulty_preference = $4,
    preferred_language = $5,
    accuracy_rate = $6,
    total_sessions = $7,
    mastered_topics = $8,
    learning_struggles = $9,
    updated_at = now()
WHERE id = $1
RETURNING id, grade_level, learning_style, difficulty_preference, preferred_language,
          accuracy_rate, total_sessions, mastered_topics, learning_struggles,
          created_at, updated_at`

// UpdateProfile overwrites a profile. Last writer wins.
func (q *PGQuerier) UpdateProfile(ctx context.Context, p Profile) (Profile, error) {
	mastered, struggles, err := marshalTopicLists(p)
	if err != nil {
		return Profile{}, err
	}

	row := q.db.QueryRow(ctx, updateProfileSQL,
		uuidToPgUUID(p.ID), p.GradeLevel, string(p.LearningStyle), string(p.Difficulty),
		p.Language, p.AccuracyRate, p.TotalSessions, mastered, struggles)
	stored, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, p.ID)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to update profile %s: %w", p.ID, err)
	}
	return stored, nil
}

const getSessionSQL = `
SELECT id, learner_id, current_topic, is_active, started_at, ended_at
FROM tutoring_sessions
WHERE id = $1`

// GetSession fetches one session by its ID.
func (q *PGQuerier) GetSession(ctx context.Context, sessionID uuid.UUID) (Session, error) {
	row := q.db.QueryRow(ctx, getSessionSQL, uuidToPgUUID(sessionID))
	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return sess, nil
}

const getActiveSessionSQL = `
SELECT id, learner_id, current_topic, is_active, started_at, ended_at
FROM tutoring_sessions
WHERE learner_id = $1 AND is_active
ORDER BY started_at DESC
LIMIT 1`

// GetActiveSession returns the learner's most recent active session.
func (q *PGQuerier) GetActiveSession(ctx context.Context, learnerID uuid.UUID) (Session, error) {
	row := q.db.QueryRow(ctx, getActiveSessionSQL, uuidToPgUUID(learnerID))
	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrNoActiveSession, learnerID)
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to get active session for %s: %w", learnerID, err)
	}
	return sess, nil
}

const insertSessionSQL = `
INSERT INTO tutoring_sessions (learner_id, current_topic, is_active)
VALUES ($1, $2, true)
RETURNING id, learner_id, current_topic, is_active, started_at, ended_at`

// InsertSession starts a new active session for the learner.
func (q *PGQuerier) InsertSession(ctx context.Context, learnerID uuid.UUID, topic string) (Session, error) {
	row := q.db.QueryRow(ctx, insertSessionSQL, uuidToPgUUID(learnerID), topic)
	sess, err := scanSession(row)
	if err != nil {
		return Session{}, fmt.Errorf("failed to insert session for %s: %w", learnerID, err)
	}
	return sess, nil
}

const closeSessionSQL = `
UPDATE tutoring_sessions
SET is_active = false,
    ended_at = now(),
    performance_summary = $2
WHERE id = $1`

// CloseSession marks a session inactive and stores its performance summary.
func (q *PGQuerier) CloseSession(ctx context.Context, sessionID uuid.UUID, summary []byte) error {
	tag, err := q.db.Exec(ctx, closeSessionSQL, uuidToPgUUID(sessionID), summary)
	if err != nil {
		return fmt.Errorf("failed to close session %s: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: session %s", ErrNoActiveSession, sessionID)
	}
	return nil
}

const listSessionsSQL = `
SELECT id, learner_id, current_topic, is_active, started_at, ended_at
FROM tutoring_sessions
WHERE learner_id = $1
ORDER BY started_at DESC
LIMIT $2 OFFSET $3`

// ListSessions returns the learner's sessions, newest first.
func (q *PGQuerier) ListSessions(ctx context.Context, learnerID uuid.UUID, limit, offset int32) ([]Session, error) {
	rows, err := q.db.Query(ctx, listSessionsSQL, uuidToPgUUID(learnerID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for %s: %w", learnerID, err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session rows: %w", err)
	}
	return sessions, nil
}

const insertInteractionSQL = `
INSERT INTO learner_interactions (session_id, interaction_type, query_text, response_text)
VALUES ($1, $2, $3, $4)
RETURNING id`

// InsertInteraction appends one exchange to the interaction log.
func (q *PGQuerier) InsertInteraction(ctx context.Context, i Interaction) (uuid.UUID, error) {
	var id pgtype.UUID
	err := q.db.QueryRow(ctx, insertInteractionSQL,
		uuidToPgUUID(i.SessionID), i.Kind, i.Query, i.Response).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert interaction: %w", err)
	}
	return pgUUIDToUUID(id), nil
}

func marshalTopicLists(p Profile) (mastered, struggles []byte, err error) {
	mastered, err = json.Marshal(emptyIfNil(p.MasteredTopics))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal mastered topics: %w", err)
	}
	struggles, err = json.Marshal(emptyIfNil(p.Struggles))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal struggles: %w", err)
	}
	return mastered, struggles, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func scanProfile(row pgx.Row) (Profile, error) {
	var (
		id                  pgtype.UUID
		style, difficulty   string
		mastered, struggles []byte
		createdAt, updated  pgtype.Timestamptz
		p                   Profile
	)
	err := row.Scan(&id, &p.GradeLevel, &style, &difficulty, &p.Language,
		&p.AccuracyRate, &p.TotalSessions, &mastered, &struggles, &createdAt, &updated)
	if err != nil {
		return Profile{}, err
	}

	p.ID = pgUUIDToUUID(id)
	p.LearningStyle = Style(style)
	p.Difficulty = Difficulty(difficulty)
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updated.Time

	if err := json.Unmarshal(mastered, &p.MasteredTopics); err != nil {
		return Profile{}, fmt.Errorf("failed to unmarshal mastered topics: %w", err)
	}
	if err := json.Unmarshal(struggles, &p.Struggles); err != nil {
		return Profile{}, fmt.Errorf("failed to unmarshal struggles: %w", err)
	}
	return p, nil
}

func scanSession(row pgx.Row) (Session, error) {
	var (
		id, learnerID  pgtype.UUID
		topic          *string
		started, ended pgtype.Timestamptz
		sess           Session
	)
	err := row.Scan(&id, &learnerID, &topic, &sess.Active, &started, &ended)
	if err != nil {
		return Session{}, err
	}

	sess.ID = pgUUIDToUUID(id)
	sess.LearnerID = pgUUIDToUUID(learnerID)
	if topic != nil {
		sess.Topic = *topic
	}
	sess.StartedAt = started.Time
	if ended.Valid {
		sess.EndedAt = ended.Time
	}
	return sess, nil
}

// uuidToPgUUID converts uuid.UUID to pgtype.UUID.
func uuidToPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// pgUUIDToUUID converts pgtype.UUID to uuid.UUID.
func pgUUIDToUUID(pgUUID pgtype.UUID) uuid.UUID {
	if !pgUUID.Valid {
		return uuid.Nil
	}
	return pgUUID.Bytes
}
