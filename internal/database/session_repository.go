package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// SessionRepository handles database operations for review sessions
type SessionRepository struct{}

// NewSessionRepository creates a new session repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

// Create inserts a new session and fills in the generated ID
func (r *SessionRepository) Create(ctx context.Context, session *models.ReviewSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO review_sessions (
			uid, owner_id, session_type, mode, is_repeat, cards,
			cards_reviewed, correct_answers, started_at, completed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args := []interface{}{
		session.UID, session.OwnerID, session.SessionType, session.Mode,
		session.IsRepeat, session.Cards, session.CardsReviewed,
		session.CorrectAnswers, session.StartedAt, session.CompletedAt, session.CreatedAt,
	}

	if DB.DriverName() == "postgres" {
		query = DB.Rebind(query + " RETURNING id")
		if err := DB.QueryRowContext(ctx, query, args...).Scan(&session.ID); err != nil {
			return fmt.Errorf("failed to create session: %v", err)
		}
		return nil
	}

	result, err := DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create session: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get session id: %v", err)
	}
	session.ID = id
	return nil
}

// GetByID returns a session by its ID, or nil if it does not exist
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.ReviewSession, error) {
	var session models.ReviewSession
	err := DB.GetContext(ctx, &session, DB.Rebind("SELECT * FROM review_sessions WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %v", err)
	}
	return &session, nil
}

// Save updates the mutable part of a session: progress counters and the
// completion timestamp
func (r *SessionRepository) Save(ctx context.Context, session *models.ReviewSession) error {
	query := DB.Rebind(`
		UPDATE review_sessions
		SET cards_reviewed = ?, correct_answers = ?, completed_at = ?
		WHERE id = ?
	`)
	_, err := DB.ExecContext(ctx, query,
		session.CardsReviewed, session.CorrectAnswers, session.CompletedAt, session.ID)
	if err != nil {
		return fmt.Errorf("failed to save session: %v", err)
	}
	return nil
}
